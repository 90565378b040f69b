// Package surveys defines the TopSurveys automation workflow: sign in,
// scan the survey list, then attempt each survey as a configured persona.
package surveys

import (
	"strconv"

	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
)

const (
	Title       = "TopSurveys Automation Workflow"
	Description = "Automated workflow for completing surveys on TopSurveys platform with persona-based responses"

	DefaultSiteURL = "https://app.topsurveys.app/Surveys"
)

// Persona is the respondent profile the engine answers surveys as
type Persona struct {
	Name       string `mapstructure:"name"`
	Age        int    `mapstructure:"age"`
	Gender     string `mapstructure:"gender"`
	Income     string `mapstructure:"income"`
	Education  string `mapstructure:"education"`
	Employment string `mapstructure:"employment"`
	Location   string `mapstructure:"location"`
}

// Options supply the parameter defaults baked into the document
type Options struct {
	SiteURL            string
	Username           string
	Password           string
	Persona            Persona
	MaxSurveysPerRun   int
	SurveyDelaySeconds int
}

// DefaultPersona returns the stock respondent profile
func DefaultPersona() Persona {
	return Persona{
		Name:       "John Smith",
		Age:        35,
		Gender:     "Male",
		Income:     "$50,000 - $74,999",
		Education:  "Bachelor's degree",
		Employment: "Full-time employed",
		Location:   "New York, NY",
	}
}

// DefaultOptions returns the options the workflow is published with when
// nothing is configured
func DefaultOptions() Options {
	return Options{
		SiteURL:            DefaultSiteURL,
		Persona:            DefaultPersona(),
		MaxSurveysPerRun:   5,
		SurveyDelaySeconds: 10,
	}
}

// Parameters returns the workflow inputs with defaults taken from opts
func Parameters(opts Options) []definition.Parameter {
	return []definition.Parameter{
		{Key: "survey_username", Description: "Username for TopSurveys login", DefaultValue: opts.Username},
		{Key: "survey_password", Description: "Password for TopSurveys login", DefaultValue: opts.Password},
		{Key: "persona_name", Description: "Name of the survey respondent", DefaultValue: opts.Persona.Name},
		{Key: "persona_age", Description: "Age of the survey respondent", DefaultValue: strconv.Itoa(opts.Persona.Age)},
		{Key: "persona_gender", Description: "Gender of the survey respondent", DefaultValue: opts.Persona.Gender},
		{Key: "persona_income", Description: "Annual household income range", DefaultValue: opts.Persona.Income},
		{Key: "persona_education", Description: "Education level", DefaultValue: opts.Persona.Education},
		{Key: "persona_employment", Description: "Employment status", DefaultValue: opts.Persona.Employment},
		{Key: "persona_location", Description: "City and state of residence", DefaultValue: opts.Persona.Location},
		{Key: "max_surveys_per_run", Description: "Maximum number of surveys to complete per run", DefaultValue: strconv.Itoa(opts.MaxSurveysPerRun)},
		{Key: "survey_delay_seconds", Description: "Delay between survey attempts (seconds)", DefaultValue: strconv.Itoa(opts.SurveyDelaySeconds)},
	}
}

// NewBuilder returns a builder preloaded with the TopSurveys parameters and
// blocks. Callers may append further blocks before building.
func NewBuilder(opts Options) *definition.Builder {
	return definition.NewBuilder(Title, Description).
		Parameters(Parameters(opts)...).
		Block(blocks(opts)...)
}

// Build returns the validated TopSurveys document
func Build(opts Options) (*definition.Document, error) {
	return NewBuilder(opts).Build()
}
