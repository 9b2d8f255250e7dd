// Package models defines the domain types for procforge.
//
// The JSON tags are the import/export file contract and the autosave payload:
// any change here changes the on-disk format.
package models

// Procedure is the root aggregate of an IT operating procedure.
type Procedure struct {
	Title          string        `json:"title" yaml:"title"`
	Reference      string        `json:"reference" yaml:"reference"`
	Version        string        `json:"version" yaml:"version"`
	Author         string        `json:"author" yaml:"author"`
	Validator      string        `json:"validator" yaml:"validator"`
	CreationDate   string        `json:"creationDate" yaml:"creationDate"`
	RevisionDate   string        `json:"revisionDate" yaml:"revisionDate"`
	Classification string        `json:"classification" yaml:"classification"`
	LogoData       *string       `json:"logoData" yaml:"logoData"`
	Objective      string        `json:"objective" yaml:"objective"`
	Scope          Scope         `json:"scope" yaml:"scope"`
	Prerequisites  Prerequisites `json:"prerequisites" yaml:"prerequisites"`
	Steps          []Step        `json:"steps" yaml:"steps"`
	Validation     Validation    `json:"validation" yaml:"validation"`
	Contact        Contact       `json:"contact" yaml:"contact"`
	Company        string        `json:"company" yaml:"company"`
	VersionHistory []Entry       `json:"versionHistory" yaml:"versionHistory"`
}

// Scope describes who and what the procedure applies to.
type Scope struct {
	Perimeter string `json:"perimeter" yaml:"perimeter"`
	Personnel string `json:"personnel" yaml:"personnel"`
	Systems   string `json:"systems" yaml:"systems"`
}

// Prerequisites groups the four prerequisite lists.
type Prerequisites struct {
	Technical   []string `json:"technical" yaml:"technical"`
	Access      []string `json:"access" yaml:"access"`
	Tools       []string `json:"tools" yaml:"tools"`
	Environment []string `json:"environment" yaml:"environment"`
}

// Step is one numbered block of the detailed procedure.
type Step struct {
	Name        string   `json:"name" yaml:"name"`
	Objective   string   `json:"objective" yaml:"objective"`
	Responsible string   `json:"responsible" yaml:"responsible"`
	Duration    string   `json:"duration" yaml:"duration"`
	Actions     []Action `json:"actions" yaml:"actions"`
	Controls    []string `json:"controls" yaml:"controls"`
	Result      string   `json:"result" yaml:"result"`
}

// Action is a unit of work inside a step.
type Action struct {
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Scenario is a conditional branch of an action ("if the hardware is new").
type Scenario struct {
	Condition string   `json:"condition" yaml:"condition"`
	Steps     []string `json:"steps" yaml:"steps"`
}

// Person is a named sign-off slot.
type Person struct {
	Name string `json:"name" yaml:"name"`
}

// Validation holds the three sign-off roles.
type Validation struct {
	Redactor Person `json:"redactor" yaml:"redactor"`
	Verifier Person `json:"verifier" yaml:"verifier"`
	Approver Person `json:"approver" yaml:"approver"`
}

// Contact is the support block printed at the end of the document.
type Contact struct {
	SupportEmail string `json:"supportEmail" yaml:"supportEmail"`
	Hotline      string `json:"hotline" yaml:"hotline"`
	Portal       string `json:"portal" yaml:"portal"`
	Location     string `json:"location" yaml:"location"`
}

// Logo is an uploaded image kept alongside the procedure.
type Logo struct {
	MIMEType string
	Data     []byte
}
