package readmodel

// Column lists shared by read models. Every list is an explicit allow-list;
// credentials and session data never appear in a projection.
var (
	ownerColumns = []string{
		"u.id AS owner_id",
		"u.username AS owner_username",
		"u.full_name AS owner_full_name",
		"u.avatar_url AS owner_avatar",
	}
	videoColumns = []string{
		"v.id", "v.video_file", "v.thumbnail", "v.title", "v.description",
		"v.duration", "v.views", "v.is_published", "v.created_at", "v.updated_at",
	}
)

const subscriberCountExpr = `(SELECT COUNT(*) FROM subscriptions sc WHERE sc.channel_id = u.id)`

// FeedQuery describes a page of the video feed.
type FeedQuery struct {
	Search    string
	OwnerID   string
	ViewerID  string
	SortBy    VideoSortField
	Direction Direction
	Page      Page
}

// visibleTo keeps published videos and the viewer's own drafts.
func visibleTo(q *query, viewerID string) {
	q.where("(v.is_published OR v.owner_id = " + q.arg(nullable(viewerID)) + ")")
}

func videoFeedQuery(f FeedQuery) *query {
	q := newQuery("videos v")
	visibleTo(q, f.ViewerID)
	if f.Search != "" {
		q.where("v.title ILIKE '%' || " + q.arg(escapeLike(f.Search)) + " || '%'")
	}
	if f.OwnerID != "" {
		q.where("v.owner_id = " + q.arg(f.OwnerID))
	}
	q.join("JOIN users u ON u.id = v.owner_id")
	q.project(videoColumns...)
	q.project(ownerColumns...)

	column, ok := videoSortColumns[f.SortBy]
	if !ok {
		column = videoSortColumns[SortByCreatedAt]
	}
	q.orderBy(column, "id", f.Direction)
	q.paginate(f.Page)
	return q
}

func videoDetailQuery(videoID, viewerID string) *query {
	q := newQuery("videos v")
	q.where("v.id = " + q.arg(videoID))
	visibleTo(q, viewerID)
	q.join("JOIN users u ON u.id = v.owner_id")
	q.compute(subscriberCountExpr, "owner_subscribers_count")
	q.compute("EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = "+q.arg(nullable(viewerID))+")", "is_subscribed")
	q.project(videoColumns...)
	q.project(ownerColumns...)
	return q
}

func watchHistoryQuery(userID string, page Page) *query {
	q := newQuery("watch_history h")
	q.where("h.user_id = " + q.arg(userID))
	q.where("(v.is_published OR v.owner_id = h.user_id)")
	q.join("JOIN videos v ON v.id = h.video_id")
	q.join("JOIN users u ON u.id = v.owner_id")
	q.project(videoColumns...)
	q.project(ownerColumns...)
	q.project("h.watched_at", "h.id AS entry_id")
	q.orderBy("watched_at", "entry_id", Descending)
	q.paginate(page)
	return q
}

func channelProfileQuery(username, viewerID string) *query {
	q := newQuery("users u")
	q.where("u.username = " + q.arg(username))
	q.compute(subscriberCountExpr, "subscribers_count")
	q.compute("(SELECT COUNT(*) FROM subscriptions st WHERE st.subscriber_id = u.id)", "channels_subscribed_to_count")
	q.compute("EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = "+q.arg(nullable(viewerID))+")", "is_subscribed")
	q.project("u.id", "u.username", "u.full_name", "u.email", "u.avatar_url", "u.cover_image_url", "u.created_at")
	return q
}

func videoCommentsQuery(videoID string, page Page) *query {
	q := newQuery("comments c")
	q.where("c.video_id = " + q.arg(videoID))
	q.join("JOIN videos v ON v.id = c.video_id")
	q.join("JOIN users u ON u.id = c.owner_id")
	q.project("c.id", "c.content", "c.created_at", "c.updated_at")
	q.project(ownerColumns...)
	q.project("v.id AS video_id", "v.title AS video_title", "v.thumbnail AS video_thumbnail")
	q.orderBy("created_at", "id", Descending)
	q.paginate(page)
	return q
}

func userTweetsQuery(userID string, page Page) *query {
	q := newQuery("tweets t")
	q.where("t.owner_id = " + q.arg(userID))
	q.join("JOIN users u ON u.id = t.owner_id")
	q.project("t.id", "t.content", "t.created_at", "t.updated_at")
	q.project(ownerColumns...)
	q.orderBy("created_at", "id", Descending)
	q.paginate(page)
	return q
}

// subscriptionQuery lists the counterpart of subscriptions matching side = id.
// side is the filtered column and other is the joined user column.
func subscriptionQuery(side, other, id string, page Page) *query {
	q := newQuery("subscriptions s")
	q.where("s." + side + " = " + q.arg(id))
	q.join("JOIN users u ON u.id = s." + other)
	q.compute(subscriberCountExpr, "subscribers_count")
	q.project("u.id", "u.username", "u.full_name", "u.avatar_url", "s.created_at AS subscribed_at", "s.id AS subscription_id")
	q.orderBy("subscribed_at", "subscription_id", Descending)
	q.paginate(page)
	return q
}

// computeVisibleVideoCount counts the playlist's living videos that viewerID
// may see, matching what playlistVideosQuery lists.
func computeVisibleVideoCount(q *query, viewerID string) {
	q.compute(`(SELECT COUNT(*) FROM playlist_videos pv JOIN videos pvv ON pvv.id = pv.video_id`+
		` WHERE pv.playlist_id = p.id AND (pvv.is_published OR pvv.owner_id = `+q.arg(nullable(viewerID))+`))`, "video_count")
}

func userPlaylistsQuery(userID, viewerID string, page Page) *query {
	q := newQuery("playlists p")
	q.where("p.owner_id = " + q.arg(userID))
	computeVisibleVideoCount(q, viewerID)
	q.project("p.id", "p.name", "p.description", "p.created_at", "p.updated_at")
	q.orderBy("created_at", "id", Descending)
	q.paginate(page)
	return q
}

func playlistHeaderQuery(playlistID, viewerID string) *query {
	q := newQuery("playlists p")
	q.where("p.id = " + q.arg(playlistID))
	q.join("JOIN users u ON u.id = p.owner_id")
	computeVisibleVideoCount(q, viewerID)
	q.project("p.id", "p.name", "p.description", "p.created_at", "p.updated_at")
	q.project(ownerColumns...)
	return q
}

func playlistVideosQuery(playlistID, viewerID string) *query {
	q := newQuery("playlist_videos pv")
	q.where("pv.playlist_id = " + q.arg(playlistID))
	visibleTo(q, viewerID)
	q.join("JOIN videos v ON v.id = pv.video_id")
	q.join("JOIN users u ON u.id = v.owner_id")
	q.project(videoColumns...)
	q.project(ownerColumns...)
	q.project("pv.position")
	q.orderBy("position", "", Ascending)
	return q
}
