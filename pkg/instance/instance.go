package instance

import "os"

// ID names the running process in logs: the platform dyno, then the host name.
func ID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
