package surveys

import (
	"fmt"

	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
)

// Block names, addressed by later blocks as <name>_output
const (
	NavigateToSite          = "navigate_to_topsurveys"
	Login                   = "login_to_topsurveys"
	ScanSurveys             = "scan_available_surveys"
	ProcessSurveysLoop      = "process_surveys_loop"
	NavigateToSurvey        = "navigate_to_survey"
	CheckQualification      = "check_qualification_status"
	HandleQualified         = "handle_qualified_survey"
	HandleDisqualified      = "handle_disqualified_survey"
	WaitBetweenSurveys      = "wait_between_surveys"
	CheckCompletionCriteria = "check_completion_criteria"
	CompletionSummary       = "generate_completion_summary"

	// LoopVariable binds the survey being processed inside the loop body
	LoopVariable = "current_survey"
)

type schema = map[string]interface{}

func prop(kind string) schema {
	return schema{"type": kind}
}

func blocks(opts Options) []definition.Block {
	site := opts.SiteURL
	if site == "" {
		site = DefaultSiteURL
	}

	return []definition.Block{
		&definition.NavigationBlock{
			BlockMeta: definition.BlockMeta{
				Name:        NavigateToSite,
				Label:       "Navigate to TopSurveys",
				Description: "Navigate to the TopSurveys main page",
			},
			Data: definition.NavigationData{
				NavigationGoal: fmt.Sprintf("Navigate to %s and wait for the page to load completely.", site),
				URL:            site,
				Criteria: definition.Criteria{
					CompleteCriterion:  "The TopSurveys dashboard or login page is visible",
					TerminateCriterion: "Page fails to load or shows an error message",
				},
			},
		},
		&definition.LoginBlock{
			BlockMeta: definition.BlockMeta{
				Name:        Login,
				Label:       "Login to TopSurveys",
				Description: "Login using provided credentials",
			},
			Data: definition.LoginData{
				NavigationGoal: "Login to TopSurveys using the provided username and password. Look for login form and submit credentials.",
				Username:       "{{survey_username}}",
				Password:       "{{survey_password}}",
				Criteria: definition.Criteria{
					CompleteCriterion:  "Successfully logged in and can see the surveys dashboard",
					TerminateCriterion: "Login fails or invalid credentials error is shown",
				},
			},
		},
		&definition.TaskBlock{
			BlockMeta: definition.BlockMeta{
				Name:        ScanSurveys,
				Label:       "Scan Available Surveys",
				Description: "Scan and list all available surveys on the page",
			},
			Data: definition.TaskData{
				NavigationGoal: "Scan all available surveys on the page. Look for survey listings, titles, and any qualification requirements. Extract information about each survey including estimated time, payout, and basic requirements.",
				DataExtractionSchema: schema{
					"surveys": schema{
						"type": "array",
						"items": schema{
							"type": "object",
							"properties": schema{
								"title":                      prop("string"),
								"url":                        prop("string"),
								"estimated_time":             prop("string"),
								"payout":                     prop("string"),
								"qualification_requirements": prop("string"),
							},
						},
					},
				},
				Criteria: definition.Criteria{
					CompleteCriterion:  "All surveys have been scanned and information extracted",
					TerminateCriterion: "No surveys available or page structure prevents scanning",
				},
			},
		},
		&definition.ForLoopBlock{
			BlockMeta: definition.BlockMeta{
				Name:        ProcessSurveysLoop,
				Label:       "Process Surveys Loop",
				Description: "Loop through available surveys and attempt to complete them",
			},
			Data: definition.ForLoopData{
				LoopOver:      "{{" + ScanSurveys + "_output.surveys}}",
				LoopVariable:  LoopVariable,
				MaxIterations: definition.Ref("max_surveys_per_run"),
			},
			Blocks: loopBody(),
		},
		&definition.ValidationBlock{
			BlockMeta: definition.BlockMeta{
				Name:        CheckCompletionCriteria,
				Label:       "Check Completion Criteria",
				Description: "Check if we should continue processing more surveys",
			},
			Data: definition.ValidationData{
				ValidationGoal: "Check if there are more surveys available and if we haven't reached the maximum limit. Look for navigation options to load more surveys or return to the main survey page.",
				ValidationSchema: schema{
					"more_surveys_available":   prop("boolean"),
					"current_completion_count": prop("integer"),
					"should_continue":          prop("boolean"),
				},
				Criteria: definition.Criteria{
					CompleteCriterion:  "Completion criteria are evaluated",
					TerminateCriterion: "Cannot determine completion status",
				},
			},
		},
		&definition.TaskBlock{
			BlockMeta: definition.BlockMeta{
				Name:        CompletionSummary,
				Label:       "Generate Completion Summary",
				Description: "Generate a summary of completed surveys and results",
			},
			Data: definition.TaskData{
				NavigationGoal: "Create a summary of all survey attempts including successes, failures, and disqualifications. Navigate to the account dashboard if available to capture final statistics.",
				DataExtractionSchema: schema{
					"summary": schema{
						"type": "object",
						"properties": schema{
							"total_surveys_attempted": prop("integer"),
							"surveys_completed":       prop("integer"),
							"surveys_disqualified":    prop("integer"),
							"total_earnings":          prop("string"),
							"completion_rate":         prop("string"),
						},
					},
				},
				Criteria: definition.Criteria{
					CompleteCriterion:  "Summary is generated and workflow is ready to complete",
					TerminateCriterion: "Cannot generate summary",
				},
			},
		},
	}
}

func loopBody() []definition.Block {
	status := CheckQualification + "_output.qualification_status"

	return []definition.Block{
		&definition.NavigationBlock{
			BlockMeta: definition.BlockMeta{
				Name:        NavigateToSurvey,
				Label:       "Navigate to Survey",
				Description: "Navigate to the selected survey URL",
			},
			Data: definition.NavigationData{
				NavigationGoal: "Navigate to the survey URL: {{" + LoopVariable + ".url}}",
				URL:            "{{" + LoopVariable + ".url}}",
				Criteria: definition.Criteria{
					CompleteCriterion:  "Survey page loads and pre-screening questions are visible",
					TerminateCriterion: "Survey URL is invalid or page fails to load",
				},
			},
		},
		&definition.ValidationBlock{
			BlockMeta: definition.BlockMeta{
				Name:        CheckQualification,
				Label:       "Check Qualification Status",
				Description: "Check if user qualifies for this survey",
			},
			Data: definition.ValidationData{
				ValidationGoal: "Check if the survey shows qualification status. Look for messages like 'you qualified', 'you did not qualify', or pre-screening questions.",
				ValidationSchema: schema{
					"qualification_status": schema{
						"type": "string",
						"enum": []interface{}{"qualified", "disqualified", "prescreening_required", "unknown"},
					},
					"message": prop("string"),
				},
				Criteria: definition.Criteria{
					CompleteCriterion:  "Qualification status is determined",
					TerminateCriterion: "Cannot determine qualification status",
				},
			},
		},
		&definition.TaskBlock{
			BlockMeta: definition.BlockMeta{
				Name:        HandleQualified,
				Label:       "Handle Qualified Survey",
				Description: "Process survey if user qualified",
				Condition:   fmt.Sprintf("{{%s == 'qualified' or %s == 'prescreening_required'}}", status, status),
			},
			Data: definition.TaskData{
				NavigationGoal: "Complete the survey by answering all questions based on the provided persona information. " +
					"Answer questions naturally and truthfully based on the persona profile. " +
					"If you encounter open-ended questions, provide thoughtful responses that align with the persona characteristics. " +
					personaProfile,
				DataExtractionSchema: schema{
					"survey_progress": schema{
						"type": "object",
						"properties": schema{
							"current_question":      prop("string"),
							"total_questions":       prop("string"),
							"completion_percentage": prop("string"),
						},
					},
				},
				Criteria: definition.Criteria{
					CompleteCriterion:  "Survey is completed or user is redirected to completion page",
					TerminateCriterion: "Survey cannot be completed due to technical issues or disqualification during survey",
				},
			},
		},
		&definition.TaskBlock{
			BlockMeta: definition.BlockMeta{
				Name:        HandleDisqualified,
				Label:       "Handle Disqualified Survey",
				Description: "Handle survey disqualification",
				Condition:   fmt.Sprintf("{{%s == 'disqualified'}}", status),
			},
			Data: definition.TaskData{
				NavigationGoal: "Acknowledge disqualification message and return to survey list. Look for 'did not qualify' or similar messages and navigate back to the main surveys page.",
				Criteria: definition.Criteria{
					CompleteCriterion:  "Returned to surveys list or main dashboard",
					TerminateCriterion: "Cannot navigate back to surveys list",
				},
			},
		},
		&definition.WaitBlock{
			BlockMeta: definition.BlockMeta{
				Name:        WaitBetweenSurveys,
				Label:       "Wait Between Surveys",
				Description: "Wait before processing next survey",
			},
			Data: definition.WaitData{
				WaitSeconds: definition.Ref("survey_delay_seconds"),
			},
		},
	}
}

// personaProfile hands the persona parameters to the engine
const personaProfile = "Persona: {{persona_name}}, age {{persona_age}}, {{persona_gender}}, " +
	"household income {{persona_income}}, education {{persona_education}}, " +
	"employment {{persona_employment}}, living in {{persona_location}}."
