package operation

import "fmt"

// JobPayload builds the pipeline-style submission body: a job description
// applied to a named application.
func JobPayload(job interface{}, description, application string) ([]byte, error) {
	return MakePayload(map[string]interface{}{
		"job":         job,
		"description": description,
		"application": application,
	})
}

// CreateApplication describes the operation that registers a new application
// with the tracked service.
func CreateApplication(account, application, email, description string) (*Operation, error) {
	if description == "" {
		description = "Testing Application"
	}
	payload, err := JobPayload(
		[]map[string]interface{}{{
			"type":    "createApplication",
			"account": account,
			"application": map[string]string{
				"name":        application,
				"description": description,
				"email":       email,
			},
			"user": "[anonymous]",
		}},
		"Create Application: "+application,
		application)
	if err != nil {
		return nil, err
	}
	return NewPost("create_app", applicationTasksPath(application), payload), nil
}

// DeleteApplication describes the operation that removes an application from
// the tracked service.
func DeleteApplication(account, application string) (*Operation, error) {
	payload, err := JobPayload(
		[]map[string]interface{}{{
			"type":        "deleteApplication",
			"account":     account,
			"application": map[string]string{"name": application},
			"user":        "[anonymous]",
		}},
		"Delete Application: "+application,
		application)
	if err != nil {
		return nil, err
	}
	return NewPost("delete_app", applicationTasksPath(application), payload), nil
}

func applicationTasksPath(application string) string {
	return fmt.Sprintf("applications/%s/tasks", application)
}
