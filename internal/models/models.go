package models

import "time"

// User represents an account (and channel) on the platform.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	Password   string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Video is a published media reference owned by a user.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VideoPatch lists the mutable video fields. Nil fields are left untouched.
type VideoPatch struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

// Empty reports whether the patch changes nothing.
func (p VideoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Thumbnail == nil
}

// Comment is a text reply attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tweet is a short text post on a user's channel.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is an ordered set of videos curated by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Videos      []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to a channel. Its presence encodes "subscribed".
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToggleResult reports which way a subscription toggle went.
type ToggleResult struct {
	Subscribed   bool         `json:"subscribed"`
	Subscription Subscription `json:"subscription"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// MediaAsset is the reference returned by the media host for an uploaded file.
type MediaAsset struct {
	Key      string
	URL      string
	Size     int64
	Duration float64
}
