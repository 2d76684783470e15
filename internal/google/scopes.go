package google

// DefaultScopes are the OAuth scopes the sync features need: event
// read/write on the user's calendar, and access to files this application
// created on Drive (the backup file).
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/drive.file",
}
