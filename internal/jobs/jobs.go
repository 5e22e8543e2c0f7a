// Package jobs holds the fixed catalog of job postings shown after sign-in.
package jobs

// Job is one posting.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     string `json:"company"`
	Location    string `json:"location"`
}

var catalog = []Job{
	{ID: "1", Title: "Software Engineer", Description: "Develop and maintain web applications.", Company: "TechCorp", Location: "New York, USA"},
	{ID: "2", Title: "Frontend Developer", Description: "Design and implement UI components.", Company: "InnovateTech", Location: "Berlin, Germany"},
	{ID: "3", Title: "Backend Developer", Description: "Build and maintain server-side applications.", Company: "CloudX", Location: "Toronto, Canada"},
	{ID: "4", Title: "Mobile App Developer", Description: "Develop and optimize mobile applications.", Company: "AppFlow", Location: "San Francisco, USA"},
	{ID: "5", Title: "DevOps Engineer", Description: "Manage CI/CD pipelines and cloud infrastructure.", Company: "CloudOps", Location: "London, UK"},
}

// All returns a copy of the catalog in display order.
func All() []Job {
	out := make([]Job, len(catalog))
	copy(out, catalog)
	return out
}

// Find returns the job with the given id.
func Find(id string) (Job, bool) {
	for _, j := range catalog {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}
