package core

// Profile is the user profile as served by the remote store. Favorites are
// a server-side list; the client re-fetches the whole profile after any
// favorites mutation instead of patching it locally.
type Profile struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Favorites []string `json:"favorites"`
}

// FavoriteSet returns favorites as a lookup set.
func (p Profile) FavoriteSet() map[string]bool {
	set := make(map[string]bool, len(p.Favorites))
	for _, id := range p.Favorites {
		set[id] = true
	}
	return set
}
