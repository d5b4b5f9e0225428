package reconciler

import "regexp"

// secretPatterns match credential material that may leak into error
// strings from database tools or storage SDKs.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|passwd|pwd)=\S+`),
	regexp.MustCompile(`(?i)(secret|token|apikey|api_key|accesskey|access_key)=\S+`),
	regexp.MustCompile(`(?i)(PGPASSWORD|AWS_SECRET_ACCESS_KEY|AZURE_STORAGE_CONNECTION_STRING)=\S+`),
	regexp.MustCompile(`(?i)AccountKey=[^;\s]+`),
	regexp.MustCompile(`postgres(ql)?://[^:\s]+:[^@\s]+@`),
}

// SanitizeErrorMessage masks credential material in an error message
// before it is stored in a resource status or logged.
func SanitizeErrorMessage(msg string) string {
	for _, p := range secretPatterns {
		msg = p.ReplaceAllString(msg, "[REDACTED]")
	}
	return msg
}
