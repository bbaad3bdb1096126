package seed

import "time"

// File is the root structure of a seed YAML file.
//
//	owners:
//	  - id: u1
//	    name: Ada
//	    resources:
//	      - key: intro-python
//	        title: Intro to Python
//	        url: https://example.com/python
//	        type: video
type File struct {
	Owners []Owner `yaml:"owners"`
}

// Owner groups the resources seeded for one user.
type Owner struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Resources []Resource `yaml:"resources"`
}

// Resource is one seeded resource. Key is stable across reloads and
// determines the resource id.
type Resource struct {
	Key         string     `yaml:"key"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description,omitempty"`
	URL         string     `yaml:"url"`
	Type        string     `yaml:"type"`
	CoverImage  string     `yaml:"coverImage,omitempty"`
	Visible     *bool      `yaml:"visible,omitempty"`
	Stars       int        `yaml:"stars,omitempty"`
	CreatedAt   *time.Time `yaml:"createdAt,omitempty"`
}
