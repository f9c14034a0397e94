package prefs

import "context"

// Preferences are the user's display settings: favorite teams (drives the
// synthetic Favorites group), league ordering, and which leagues are
// collapsed or hidden.
type Preferences struct {
	FavoriteTeams    []string `json:"favoriteTeams"`
	LeagueOrder      []string `json:"leagueOrder"`
	CollapsedLeagues []string `json:"collapsedLeagues"`
	HiddenLeagues    []string `json:"hiddenLeagues"`
}

// Repository persists preferences as a single blob.
type Repository interface {
	Get(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
}

// TokenStore persists the backend session token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}
