package instagram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode builds a payload the same way the pipeline does, so numeric values
// carry the JSON decoder's types.
func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

const graphqlPayload = `{
	"graphql": {
		"user": {
			"full_name": "Jane Doe",
			"username": "janedoe",
			"profile_pic_url": "https://cdn.example/janedoe.jpg",
			"edge_followed_by": {"count": 1200},
			"edge_follow": {"count": 310},
			"edge_owner_to_timeline_media": {
				"count": 42,
				"edges": [
					{"node": {"id": "1", "shortcode": "AAA", "edge_liked_by": {"count": 100}, "edge_media_to_comment": {"count": 10}, "taken_at_timestamp": 1700000000}},
					{"node": {"id": "2", "shortcode": "BBB", "edge_media_preview_like": {"count": 50}, "comment_count": 5}},
					{"node": {"id": "3", "shortcode": "CCC", "like_count": 25}}
				]
			}
		}
	}
}`

func TestNormalizeGraphqlShape(t *testing.T) {
	profile := Normalize(decode(t, graphqlPayload))
	require.NotNil(t, profile)

	require.NotNil(t, profile.Username)
	assert.Equal(t, "janedoe", *profile.Username)
	assert.Equal(t, "Jane Doe", *profile.DisplayName)
	assert.Equal(t, "https://cdn.example/janedoe.jpg", *profile.ProfilePic)
	assert.Equal(t, 1200, *profile.Followers)
	assert.Equal(t, 310, *profile.Following)
	assert.Equal(t, 42, *profile.PostsCount)

	// Posts match the source edges exactly, in order
	require.Len(t, profile.Posts, 3)
	assert.Equal(t, "1", profile.Posts[0].ID)
	assert.Equal(t, "2", profile.Posts[1].ID)
	assert.Equal(t, "3", profile.Posts[2].ID)

	// Ordered fallback per post field: edge_liked_by, then
	// edge_media_preview_like, then like_count
	assert.Equal(t, 100, *profile.Posts[0].Likes)
	assert.Equal(t, 50, *profile.Posts[1].Likes)
	assert.Equal(t, 25, *profile.Posts[2].Likes)

	assert.Equal(t, 10, *profile.Posts[0].Comments)
	assert.Equal(t, 5, *profile.Posts[1].Comments)
	assert.Nil(t, profile.Posts[2].Comments)

	assert.Equal(t, int64(1700000000), *profile.Posts[0].Timestamp)
	assert.Nil(t, profile.Posts[1].Timestamp)
}

func TestNormalizeWebProfileInfoShape(t *testing.T) {
	payload := decode(t, `{
		"data": {
			"user": {
				"username": "janedoe",
				"followed_by_count": 900,
				"follows_count": 120
			}
		},
		"status": "ok"
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	assert.Equal(t, "janedoe", *profile.Username)
	assert.Equal(t, 900, *profile.Followers)
	assert.Equal(t, 120, *profile.Following)
	assert.Empty(t, profile.Posts)
}

func TestNormalizeEntryDataShape(t *testing.T) {
	payload := decode(t, `{
		"entry_data": {
			"ProfilePage": [
				{"graphql": {"user": {"username": "embedded_user", "followers": 77}}}
			]
		}
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	assert.Equal(t, "embedded_user", *profile.Username)
	assert.Equal(t, 77, *profile.Followers)
}

func TestNormalizeFlatFollowersField(t *testing.T) {
	// A user object with only a flat followers field, no nested count
	// object, still reports the same numeric value.
	payload := decode(t, `{
		"whatever": {
			"username": "flatcase",
			"followers": 512,
			"following": 100
		}
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	assert.Equal(t, 512, *profile.Followers)
	assert.Equal(t, 100, *profile.Following)
}

func TestNormalizeShallowScan(t *testing.T) {
	// No conventional location; the scan finds the object exposing a
	// posts-edge field.
	payload := decode(t, `{
		"misc": {"unrelated": true},
		"payload": {
			"edge_owner_to_timeline_media": {"count": 3, "edges": []},
			"full_name": "Scanned"
		}
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	assert.Equal(t, "Scanned", *profile.DisplayName)
	assert.Equal(t, 3, *profile.PostsCount)
}

func TestNormalizeNoMatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"scalars only", `{"status": "fail", "count": 3}`},
		{"nested without signature fields", `{"data": {"viewer": {"id": "9"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Normalize(decode(t, tt.raw)))
		})
	}
}

func TestNormalizePostIdentifierFallback(t *testing.T) {
	payload := decode(t, `{
		"graphql": {
			"user": {
				"username": "idcase",
				"edge_owner_to_timeline_media": {
					"edges": [
						{"node": {"shortcode": "ONLY_SC", "like_count": 4}},
						{"node": {"id": 12345}},
						{"node": {"like_count": 9}}
					]
				}
			}
		}
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	require.Len(t, profile.Posts, 3)

	// id falls back to the shortcode, shortcode falls back to the id
	assert.Equal(t, "ONLY_SC", profile.Posts[0].ID)
	assert.Equal(t, "ONLY_SC", profile.Posts[0].Shortcode)

	// numeric ids are rendered as strings
	assert.Equal(t, "12345", profile.Posts[1].ID)

	// a post without any identifier keeps an empty id; the pipeline drops
	// it before augmentation
	assert.Empty(t, profile.Posts[2].ID)
}

func TestNormalizeBareEdges(t *testing.T) {
	// Some variants carry post objects directly instead of node wrappers.
	payload := decode(t, `{
		"graphql": {
			"user": {
				"username": "barecase",
				"media": [
					{"id": "m1", "like_count": 7, "comment_count": 2, "taken_at": 1650000000}
				]
			}
		}
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	require.Len(t, profile.Posts, 1)
	assert.Equal(t, "m1", profile.Posts[0].ID)
	assert.Equal(t, 7, *profile.Posts[0].Likes)
	assert.Equal(t, 2, *profile.Posts[0].Comments)
	assert.Equal(t, int64(1650000000), *profile.Posts[0].Timestamp)
}

func TestNormalizeDisplayNameAliases(t *testing.T) {
	payload := decode(t, `{
		"graphql": {"user": {"username": "aliascase", "name": "Alias Name"}}
	}`)

	profile := Normalize(payload)
	require.NotNil(t, profile)
	assert.Equal(t, "Alias Name", *profile.DisplayName)
}
