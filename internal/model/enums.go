package model

type ClassStatus string

const (
	ClassStatusScheduled ClassStatus = "scheduled"
	ClassStatusLive      ClassStatus = "live"
	ClassStatusEnded     ClassStatus = "ended"
)

func ValidClassStatuses() []string {
	return []string{
		string(ClassStatusScheduled),
		string(ClassStatusLive),
		string(ClassStatusEnded),
	}
}
