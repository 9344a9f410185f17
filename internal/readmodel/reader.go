package readmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
)

// Reader runs read models against PostgreSQL. List read models return an empty
// slice when nothing matches; single-record read models return
// repositories.ErrNotFound.
type Reader struct {
	pool db.Pool
}

// NewReader constructs a Reader over the pool.
func NewReader(pool db.Pool) *Reader {
	return &Reader{pool: pool}
}

// VideoFeed returns a page of videos visible to the viewer.
func (r *Reader) VideoFeed(ctx context.Context, f FeedQuery) ([]FeedVideo, error) {
	return list(ctx, r, "readmodel.video_feed", videoFeedQuery(f), func(row pgx.Rows) (FeedVideo, error) {
		var v FeedVideo
		err := row.Scan(feedTargets(&v)...)
		return v, err
	})
}

// VideoDetail returns one video visible to the viewer with its channel statistics.
func (r *Reader) VideoDetail(ctx context.Context, videoID, viewerID string) (VideoDetail, error) {
	return one(ctx, r, "readmodel.video_detail", videoDetailQuery(videoID, viewerID), func(row pgx.Rows) (VideoDetail, error) {
		var d VideoDetail
		err := row.Scan(append(feedTargets(&d.FeedVideo), &d.OwnerSubscribersCount, &d.IsSubscribed)...)
		return d, err
	})
}

// WatchHistory returns the user's view events, most recent first.
func (r *Reader) WatchHistory(ctx context.Context, userID string, page Page) ([]WatchedVideo, error) {
	return list(ctx, r, "readmodel.watch_history", watchHistoryQuery(userID, page), func(row pgx.Rows) (WatchedVideo, error) {
		var (
			w       WatchedVideo
			entryID string
		)
		err := row.Scan(append(feedTargets(&w.FeedVideo), &w.WatchedAt, &entryID)...)
		return w, err
	})
}

// ChannelProfile returns the channel page for username as seen by the viewer.
func (r *Reader) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	return one(ctx, r, "readmodel.channel_profile", channelProfileQuery(username, viewerID), func(row pgx.Rows) (ChannelProfile, error) {
		var c ChannelProfile
		err := row.Scan(&c.ID, &c.Username, &c.FullName, &c.Email, &c.Avatar, &c.CoverImage, &c.CreatedAt,
			&c.SubscribersCount, &c.ChannelsSubscribedToCount, &c.IsSubscribed)
		return c, err
	})
}

// VideoComments returns comments on a living video, newest first.
func (r *Reader) VideoComments(ctx context.Context, videoID string, page Page) ([]CommentView, error) {
	return list(ctx, r, "readmodel.video_comments", videoCommentsQuery(videoID, page), func(row pgx.Rows) (CommentView, error) {
		var c CommentView
		err := row.Scan(&c.ID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.ID, &c.Owner.Username, &c.Owner.FullName, &c.Owner.Avatar,
			&c.Video.ID, &c.Video.Title, &c.Video.Thumbnail)
		return c, err
	})
}

// UserTweets returns the user's tweets, newest first.
func (r *Reader) UserTweets(ctx context.Context, userID string, page Page) ([]TweetView, error) {
	return list(ctx, r, "readmodel.user_tweets", userTweetsQuery(userID, page), func(row pgx.Rows) (TweetView, error) {
		var t TweetView
		err := row.Scan(&t.ID, &t.Content, &t.CreatedAt, &t.UpdatedAt,
			&t.Owner.ID, &t.Owner.Username, &t.Owner.FullName, &t.Owner.Avatar)
		return t, err
	})
}

// ChannelSubscribers returns the users subscribed to the channel.
func (r *Reader) ChannelSubscribers(ctx context.Context, channelID string, page Page) ([]ChannelSummary, error) {
	return list(ctx, r, "readmodel.channel_subscribers", subscriptionQuery("channel_id", "subscriber_id", channelID, page), scanChannelSummary)
}

// SubscribedChannels returns the channels the user is subscribed to.
func (r *Reader) SubscribedChannels(ctx context.Context, subscriberID string, page Page) ([]ChannelSummary, error) {
	return list(ctx, r, "readmodel.subscribed_channels", subscriptionQuery("subscriber_id", "channel_id", subscriberID, page), scanChannelSummary)
}

// UserPlaylists returns the user's playlists with the number of living videos
// viewerID may see in each.
func (r *Reader) UserPlaylists(ctx context.Context, userID, viewerID string, page Page) ([]PlaylistSummary, error) {
	return list(ctx, r, "readmodel.user_playlists", userPlaylistsQuery(userID, viewerID, page), func(row pgx.Rows) (PlaylistSummary, error) {
		var p PlaylistSummary
		err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount)
		return p, err
	})
}

// PlaylistDetail returns a playlist with its owner and the living videos the
// viewer may see, in insertion order.
func (r *Reader) PlaylistDetail(ctx context.Context, playlistID, viewerID string) (PlaylistDetail, error) {
	detail, err := one(ctx, r, "readmodel.playlist_detail", playlistHeaderQuery(playlistID, viewerID), func(row pgx.Rows) (PlaylistDetail, error) {
		var d PlaylistDetail
		err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt,
			&d.Owner.ID, &d.Owner.Username, &d.Owner.FullName, &d.Owner.Avatar, &d.VideoCount)
		return d, err
	})
	if err != nil {
		return PlaylistDetail{}, err
	}

	detail.Videos, err = list(ctx, r, "readmodel.playlist_videos", playlistVideosQuery(playlistID, viewerID), func(row pgx.Rows) (FeedVideo, error) {
		var (
			v        FeedVideo
			position int64
		)
		err := row.Scan(append(feedTargets(&v), &position)...)
		return v, err
	})
	if err != nil {
		return PlaylistDetail{}, err
	}
	return detail, nil
}

func feedTargets(v *FeedVideo) []any {
	return []any{
		&v.ID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.Avatar,
	}
}

func scanChannelSummary(row pgx.Rows) (ChannelSummary, error) {
	var (
		c              ChannelSummary
		subscriptionID string
	)
	err := row.Scan(&c.ID, &c.Username, &c.FullName, &c.Avatar, &c.SubscribedAt, &subscriptionID, &c.SubscribersCount)
	return c, err
}

func list[T any](ctx context.Context, r *Reader, name string, q *query, scan func(pgx.Rows) (T, error)) ([]T, error) {
	ctx, span := logging.StartSpan(ctx, name)
	defer span.End()

	items, err := run(ctx, r.pool, q, scan)
	if err != nil {
		span.Fail(err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	span.Annotate(slog.Int("rows", len(items)))
	return items, nil
}

func one[T any](ctx context.Context, r *Reader, name string, q *query, scan func(pgx.Rows) (T, error)) (T, error) {
	var zero T
	items, err := list(ctx, r, name, q, scan)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, repositories.ErrNotFound
	}
	return items[0], nil
}

func run[T any](ctx context.Context, pool db.Pool, q *query, scan func(pgx.Rows) (T, error)) ([]T, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sql, args := q.build()
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		if malformedID(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		if malformedID(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return items, nil
}

// malformedID reports a uuid parse failure; such an ID cannot match any row.
func malformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
