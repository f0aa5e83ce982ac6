package catalog

const (
	DefaultStartYear = 2025
	DefaultEndYear   = 2030
	DefaultHorizon   = 3
	defaultStart     = 100
)

// Default returns the built-in catalog of workshops, jobs and startups.
func Default() Catalog {
	return Catalog{
		StartYear: DefaultStartYear,
		EndYear:   DefaultEndYear,
		Horizon:   DefaultHorizon,
		Groups: []GroupSpec{
			{
				Group: Workshops,
				Title: "Workshop Participation",
				Unit:  "Participants",
				Categories: []Category{
					cat("Digital Marketing & E-commerce Workshops", 18.0),
					cat("Cybersecurity Workshops", 22.0),
					cat("Cloud Computing Workshops", 20.0),
					cat("Web Development Workshops", 15.0),
					cat("Data Science & Analytics Workshops", 20.0),
					cat("Blockchain & Fintech Workshops", 25.0),
					cat("AI & ML Workshops", 35.0),
					cat("IoT Workshops", 12.0),
					cat("DevOps & Automation Workshops", 17.0),
				},
			},
			{
				Group: Jobs,
				Title: "Job Demand",
				Unit:  "Jobs",
				Categories: []Category{
					cat("AI Engineer Jobs", 40.0),
					cat("Cybersecurity Specialist Jobs", 22.0),
					cat("Web Developer Jobs", 18.0),
					cat("Data Scientist Jobs", 20.0),
					cat("Blockchain Developer Jobs", 28.0),
					cat("Fintech Specialist Jobs", 25.0),
					cat("Cloud Architect Jobs", 23.0),
					cat("DevOps Engineer Jobs", 19.0),
					cat("Digital Marketing Specialist Jobs", 18.0),
				},
			},
			{
				Group: Startups,
				Title: "New Startup Growth",
				Unit:  "Startups",
				Categories: []Category{
					cat("Fintech Startups", 30.0),
					cat("E-commerce & Logistics Startups", 20.0),
					cat("EdTech Startups", 25.0),
					cat("AgriTech Startups", 18.0),
					cat("HealthTech Startups", 22.0),
					cat("AI/Big Data Startups", 35.0),
					cat("Gaming & Entertainment Startups", 15.0),
				},
			},
		},
	}
}

func cat(name string, rate float64) Category {
	return Category{Name: name, Rate: rate, StartValue: defaultStart}
}
