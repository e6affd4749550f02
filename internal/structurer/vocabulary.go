package structurer

import "atscore/internal/types"

// sectionHeaders maps each canonical section to the header phrases that open it
var sectionHeaders = map[string][]string{
	types.SectionContact: {
		"contact", "contact information", "personal information",
		"personal details", "contact details", "contact info",
	},
	types.SectionSummary: {
		"summary", "professional summary", "profile", "objective",
		"career objective", "professional profile", "about me",
		"about", "career summary", "executive summary",
	},
	types.SectionSkills: {
		"skills", "technical skills", "core competencies", "competencies",
		"expertise", "core skills", "key skills", "technologies",
		"technical expertise", "areas of expertise", "proficiencies",
		"skills & tools", "skills and tools",
	},
	types.SectionExperience: {
		"experience", "work experience", "professional experience",
		"employment", "employment history", "work history",
		"professional background", "career history", "relevant experience",
	},
	types.SectionEducation: {
		"education", "educational background", "academic background",
		"qualifications", "academic qualifications", "academics",
		"educational qualifications", "education & training",
	},
}

// headerIndex is sectionHeaders inverted for constant-time lookups
var headerIndex = func() map[string]string {
	idx := make(map[string]string)
	for section, phrases := range sectionHeaders {
		for _, p := range phrases {
			idx[p] = section
		}
	}
	return idx
}()

// commonSkills is the curated technical vocabulary matched anywhere in skill text
var commonSkills = []string{
	// languages
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby",
	"php", "swift", "kotlin", "go", "golang", "rust", "scala", "r", "matlab",
	"perl", "shell", "bash", "powershell",
	// web
	"html", "css", "react", "angular", "vue", "node.js", "express",
	"django", "flask", "spring", "asp.net", "jquery", "bootstrap",
	"tailwind", "sass", "webpack", "babel",
	// databases
	"sql", "mysql", "postgresql", "mongodb", "redis", "cassandra",
	"oracle", "sqlite", "dynamodb", "elasticsearch", "neo4j",
	// cloud and devops
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "gitlab",
	"github actions", "terraform", "ansible", "chef", "puppet",
	"ci/cd", "devops",
	// data and ml
	"machine learning", "deep learning", "nlp", "tensorflow", "pytorch",
	"keras", "scikit-learn", "pandas", "numpy", "spark", "hadoop",
	"tableau", "power bi", "data analysis", "statistics",
	// other
	"git", "linux", "agile", "scrum", "jira", "rest api", "graphql",
	"microservices", "testing", "unit testing", "tdd", "api",
}

// inferenceSkillTokens signal a skills paragraph when no headers exist.
// Single-letter and ambiguous short terms are left out.
var inferenceSkillTokens = []string{
	"python", "java", "javascript", "typescript", "c++", "ruby", "php",
	"kotlin", "golang", "rust", "scala", "html", "css", "react", "angular",
	"node.js", "django", "flask", "sql", "docker", "kubernetes", "aws",
}

// jobTitleKeywords qualify the "Title, Company" first-line form
var jobTitleKeywords = []string{
	"engineer", "developer", "architect", "manager", "lead", "senior",
	"junior", "principal", "staff", "analyst", "consultant", "specialist",
	"designer", "director", "coordinator", "administrator", "scientist",
	"researcher", "associate", "intern", "trainee", "head", "chief",
	"vp", "vice president", "cto", "ceo", "cfo",
}

// degreeWords are matched case-insensitively; degreeAbbreviations must match case
var degreeWords = []string{
	"bachelor", "bachelors", "bachelor's", "master", "masters", "master's",
	"doctorate", "phd", "ph.d", "ph.d.", "associate", "associate's",
	"diploma", "certification", "certificate",
}

var degreeAbbreviations = []string{
	"BS", "B.S.", "B.S", "BSc", "B.Sc.", "MS", "M.S.", "M.S", "MSc", "M.Sc.",
	"BA", "B.A.", "MA", "M.A.", "BE", "B.E.", "ME", "M.E.", "MBA", "M.B.A.",
	"BTech", "B.Tech", "MTech", "M.Tech", "PhD", "Ph.D.",
}

// institutionWords mark a line as naming a school
var institutionWords = []string{"University", "College", "Institute", "School", "Academy"}
