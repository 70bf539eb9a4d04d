package skills

// DefaultTaxonomy returns the built-in canonical skill names. Deployments
// extend it through configuration; extraction only ever reports names from
// the active taxonomy.
func DefaultTaxonomy() []string {
	return []string{
		"Python", "JavaScript", "TypeScript", "Java", "C++", "C#", "Go", "Rust",
		"React", "Vue", "Angular", "Node.js", "Django", "Flask", "FastAPI",
		"Machine Learning", "Deep Learning", "AI", "Data Science", "Analytics",
		"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch",
		"AWS", "GCP", "Azure", "Docker", "Kubernetes", "Jenkins", "Git",
		"TensorFlow", "PyTorch", "Scikit-learn", "Pandas", "NumPy",
		"Linux", "Ubuntu", "REST API", "GraphQL", "Microservices",
		"Tableau", "Excel", "PowerBI", "R", "Scala", "Spark",
	}
}

type derivedRule struct {
	tag     string
	members []string
}

// derivedRules add a family tag when any member skill is detected. Detecting
// a concrete SQL database implies the generic SQL skill.
var derivedRules = []derivedRule{
	{tag: "SQL", members: []string{"PostgreSQL", "MySQL", "MongoDB"}},
}
