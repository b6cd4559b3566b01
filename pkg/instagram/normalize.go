package instagram

import (
	"sort"
	"strconv"
)

// The upstream API returns user data in several shapes depending on which
// endpoint produced it: the GraphQL wrapper, the web_profile_info wrapper, or
// the server-rendered page entry data. Each logical field is extracted with an
// ordered list of rules; the first rule yielding a value wins.

// fieldPath is one extractor rule: a sequence of keys into a nested object.
type fieldPath []string

var (
	displayNameRules = []fieldPath{{"full_name"}, {"name"}}
	usernameRules    = []fieldPath{{"username"}, {"user", "username"}}
	profilePicRules  = []fieldPath{{"profile_pic_url"}, {"profile_pic_url_hd"}, {"profile_picture"}}
	followerRules    = []fieldPath{{"edge_followed_by", "count"}, {"followed_by_count"}, {"followers"}}
	followingRules   = []fieldPath{{"edge_follow", "count"}, {"follows_count"}, {"following"}}
	postCountRules   = []fieldPath{{"edge_owner_to_timeline_media", "count"}, {"media_count"}, {"posts_count"}}
	postEdgeRules    = []fieldPath{{"edge_owner_to_timeline_media", "edges"}, {"media"}, {"recent_media"}}

	likeRules      = []fieldPath{{"edge_liked_by", "count"}, {"edge_media_preview_like", "count"}, {"like_count"}}
	commentRules   = []fieldPath{{"edge_media_to_comment", "count"}, {"comment_count"}}
	timestampRules = []fieldPath{{"taken_at_timestamp"}, {"taken_at"}}
	postIDRules    = []fieldPath{{"id"}, {"shortcode"}}
	shortcodeRules = []fieldPath{{"shortcode"}, {"id"}}
)

// Normalize projects one raw payload of unknown schema into a candidate
// Profile. It returns nil when no user structure can be located anywhere in
// the payload. The function is pure and never fails on malformed input.
func Normalize(payload map[string]interface{}) *Profile {
	user := findUser(payload)
	if user == nil {
		user = findUser(lookupMap(payload, "data"))
	}
	if user == nil {
		user = findUser(lookupMap(payload, "data", "user"))
	}
	if user == nil {
		return nil
	}

	profile := &Profile{
		DisplayName: firstString(user, displayNameRules),
		Username:    firstString(user, usernameRules),
		ProfilePic:  firstString(user, profilePicRules),
		Followers:   firstInt(user, followerRules),
		Following:   firstInt(user, followingRules),
		PostsCount:  firstInt(user, postCountRules),
		Posts:       normalizePosts(firstSlice(user, postEdgeRules)),
	}

	return profile
}

// findUser locates a user-shaped object inside an arbitrary nested mapping.
// Conventional locations are tried first, then a shallow scan of top-level
// values for an object exposing a signature field.
func findUser(obj map[string]interface{}) map[string]interface{} {
	if obj == nil {
		return nil
	}

	if u := lookupMap(obj, "graphql", "user"); u != nil {
		return u
	}
	if u := lookupMap(obj, "data", "user"); u != nil {
		return u
	}
	if pages, ok := lookup(obj, "entry_data", "ProfilePage"); ok {
		if arr, ok := pages.([]interface{}); ok && len(arr) > 0 {
			if page, ok := arr[0].(map[string]interface{}); ok {
				if u := lookupMap(page, "graphql", "user"); u != nil {
					return u
				}
			}
		}
	}

	// Shallow scan. JSON decoding does not preserve key order, so keys are
	// visited in sorted order to keep the scan deterministic.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := obj[k].(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := v["edge_followed_by"]; ok {
			return v
		}
		if _, ok := v["edge_owner_to_timeline_media"]; ok {
			return v
		}
		if _, ok := v["username"]; ok {
			return v
		}
	}

	return nil
}

// normalizePosts projects raw post edges into Post records, preserving the
// source's edge order. An edge may wrap its payload in a "node" object or
// carry the fields directly.
func normalizePosts(edges []interface{}) []Post {
	posts := make([]Post, 0, len(edges))
	for _, edge := range edges {
		node, ok := edge.(map[string]interface{})
		if !ok {
			continue
		}
		if inner := lookupMap(node, "node"); inner != nil {
			node = inner
		}

		var id, shortcode string
		if s := firstString(node, postIDRules); s != nil {
			id = *s
		}
		if s := firstString(node, shortcodeRules); s != nil {
			shortcode = *s
		}

		posts = append(posts, Post{
			ID:        id,
			Shortcode: shortcode,
			Likes:     firstInt(node, likeRules),
			Comments:  firstInt(node, commentRules),
			Timestamp: firstInt64(node, timestampRules),
		})
	}
	return posts
}

// lookup walks a sequence of keys into nested objects.
func lookup(obj map[string]interface{}, path ...string) (interface{}, bool) {
	var current interface{} = obj
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// lookupMap walks a key path and returns the value only if it is an object.
func lookupMap(obj map[string]interface{}, path ...string) map[string]interface{} {
	v, ok := lookup(obj, path...)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

// firstString applies the rules in order and returns the first non-empty
// string value found. Numeric values are rendered as strings so that a
// numeric id still yields a usable identifier.
func firstString(obj map[string]interface{}, rules []fieldPath) *string {
	for _, rule := range rules {
		v, ok := lookup(obj, rule...)
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return &val
			}
		case float64:
			s := strconv.FormatFloat(val, 'f', -1, 64)
			return &s
		}
	}
	return nil
}

// firstInt applies the rules in order and returns the first numeric value.
func firstInt(obj map[string]interface{}, rules []fieldPath) *int {
	for _, rule := range rules {
		v, ok := lookup(obj, rule...)
		if !ok {
			continue
		}
		if n, ok := asInt(v); ok {
			return &n
		}
	}
	return nil
}

// firstInt64 is firstInt for wider values such as unix timestamps.
func firstInt64(obj map[string]interface{}, rules []fieldPath) *int64 {
	for _, rule := range rules {
		v, ok := lookup(obj, rule...)
		if !ok {
			continue
		}
		if f, ok := v.(float64); ok {
			n := int64(f)
			return &n
		}
		if n, ok := v.(int64); ok {
			return &n
		}
		if n, ok := v.(int); ok {
			n64 := int64(n)
			return &n64
		}
	}
	return nil
}

// firstSlice applies the rules in order and returns the first array value.
func firstSlice(obj map[string]interface{}, rules []fieldPath) []interface{} {
	for _, rule := range rules {
		v, ok := lookup(obj, rule...)
		if !ok {
			continue
		}
		if arr, ok := v.([]interface{}); ok {
			return arr
		}
	}
	return nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
