package logger

import "os"

// ciEnvVars maps CI environment variables to the metadata key they populate
// in log records when running under CI.
var ciEnvVars = map[string]string{
	"CI":                "ci",
	"GITHUB_ACTIONS":    "github_actions",
	"GITHUB_RUN_ID":     "run_id",
	"GITHUB_WORKFLOW":   "workflow",
	"GITHUB_REF_NAME":   "ref",
	"GITHUB_SHA":        "commit",
	"GITHUB_REPOSITORY": "repository",
}

// isInCIEnvironment reports whether the process appears to be running in a
// CI environment.
func isInCIEnvironment() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// getCIMetadata collects CI environment metadata for inclusion in log
// records. Returns an empty map outside CI.
func getCIMetadata() map[string]string {
	metadata := make(map[string]string)
	if !isInCIEnvironment() {
		return metadata
	}
	for envVar, key := range ciEnvVars {
		if value := os.Getenv(envVar); value != "" {
			metadata[key] = value
		}
	}
	return metadata
}
