package graph

import (
	"context"
	"net/url"
	"strconv"
)

type Media struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Permalink     string `json:"permalink"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int64  `json:"like_count"`
	CommentsCount int64  `json:"comments_count"`
	ViewCount     int64  `json:"view_count"`
}

type mediaList struct {
	Data []Media `json:"data"`
}

// Lists recent media for an Instagram business account, filtered to the
// types automation rules can target (reels/video and images).
func (c *Client) GetMedia(ctx context.Context, igUserID, accessToken string) ([]Media, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count,view_count")
	params.Set("limit", strconv.Itoa(20))

	var list mediaList
	if err := c.getJSON(ctx, igUserID+"/media", params, &list); err != nil {
		return nil, err
	}

	out := make([]Media, 0, len(list.Data))
	for _, m := range list.Data {
		if m.MediaType == "VIDEO" || m.MediaType == "IMAGE" {
			out = append(out, m)
		}
	}
	return out, nil
}
