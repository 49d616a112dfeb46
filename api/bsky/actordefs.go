package bsky

// schema: app.bsky.actor.defs

// ActorDefs_ProfileView is a "profileView" in the app.bsky.actor.defs schema.
type ActorDefs_ProfileView struct {
	Avatar      *string `json:"avatar,omitempty"`
	CreatedAt   *string `json:"createdAt,omitempty"`
	Description *string `json:"description,omitempty"`
	Did         string  `json:"did"`
	DisplayName *string `json:"displayName,omitempty"`
	Handle      string  `json:"handle"`
	IndexedAt   *string `json:"indexedAt,omitempty"`
}

// ActorDefs_ProfileViewDetailed is a "profileViewDetailed" in the app.bsky.actor.defs schema.
type ActorDefs_ProfileViewDetailed struct {
	Avatar         *string `json:"avatar,omitempty"`
	Banner         *string `json:"banner,omitempty"`
	CreatedAt      *string `json:"createdAt,omitempty"`
	Description    *string `json:"description,omitempty"`
	Did            string  `json:"did"`
	DisplayName    *string `json:"displayName,omitempty"`
	FollowersCount *int64  `json:"followersCount,omitempty"`
	FollowsCount   *int64  `json:"followsCount,omitempty"`
	Handle         string  `json:"handle"`
	IndexedAt      *string `json:"indexedAt,omitempty"`
	PostsCount     *int64  `json:"postsCount,omitempty"`
}
