package event

// TBD is the display placeholder for team names the provider has not
// finalized.
const TBD = "TBD"

// Event is a single scheduled fixture after normalization. Date is the
// nominal UTC calendar day, Time the UTC wall-clock kickoff (empty when
// unscheduled). Nil scores mean not yet played or unknown.
type Event struct {
	ID          string `json:"eventId"`
	LeagueID    string `json:"leagueId"`
	LeagueName  string `json:"leagueName"`
	LeagueBadge string `json:"leagueBadge,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	HomeTeam    string `json:"homeTeam"`
	AwayTeam    string `json:"awayTeam"`
	HomeScore   *int   `json:"homeScore"`
	AwayScore   *int   `json:"awayScore"`
}

// LeagueGroup partitions one queried day's events by competition.
type LeagueGroup struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Badge  string  `json:"badge,omitempty"`
	Events []Event `json:"events"`
}

// LeagueConfig identifies one competition the app is configured to follow.
type LeagueConfig struct {
	ID    string
	Name  string
	Badge string
}
