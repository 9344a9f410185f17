package readmodel

import "time"

// OwnerSummary is the public slice of a user embedded in other read models.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// FeedVideo is a video joined with its owner.
type FeedVideo struct {
	ID          string       `json:"id"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	IsPublished bool         `json:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Owner       OwnerSummary `json:"owner"`
}

// VideoDetail is a single video with channel statistics relative to the viewer.
type VideoDetail struct {
	FeedVideo
	OwnerSubscribersCount int64 `json:"ownerSubscribersCount"`
	IsSubscribed          bool  `json:"isSubscribed"`
}

// WatchedVideo is one watch-history event.
type WatchedVideo struct {
	FeedVideo
	WatchedAt time.Time `json:"watchedAt"`
}

// ChannelProfile is the public channel page of a user.
type ChannelProfile struct {
	ID                        string    `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// VideoRef identifies the video a comment belongs to.
type VideoRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// CommentView is a comment joined with its author and video.
type CommentView struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     OwnerSummary `json:"owner"`
	Video     VideoRef     `json:"video"`
}

// TweetView is a tweet joined with its author.
type TweetView struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     OwnerSummary `json:"owner"`
}

// ChannelSummary is the counterpart of a subscription: the subscriber when
// listing a channel's subscribers, the channel when listing subscriptions.
type ChannelSummary struct {
	OwnerSummary
	SubscribersCount int64     `json:"subscribersCount"`
	SubscribedAt     time.Time `json:"subscribedAt"`
}

// PlaylistSummary is a playlist with its computed size.
type PlaylistSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int64     `json:"videoCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistDetail is a playlist header with its owner and living videos in order.
type PlaylistDetail struct {
	PlaylistSummary
	Owner  OwnerSummary `json:"owner"`
	Videos []FeedVideo  `json:"videos"`
}
