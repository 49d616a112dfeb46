package bsky

// schema: app.bsky.graph.listitem

// GraphListitem is a "app.bsky.graph.listitem" record: membership of the subject account in a list.
type GraphListitem struct {
	LexiconTypeID string `json:"$type"`
	CreatedAt     string `json:"createdAt"`
	// list: Reference (AT-URI) to the list record (app.bsky.graph.list).
	List string `json:"list"`
	// subject: The account which is included on the list.
	Subject string `json:"subject"`
}

const GraphListitemNSID = "app.bsky.graph.listitem"
const GraphListNSID = "app.bsky.graph.list"
