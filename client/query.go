package client

import (
	"net/url"
	"strconv"
)

// Paging defaults applied when a query leaves them unset.
const (
	DefaultStart = 0
	DefaultCount = 200
)

// PageQuery selects a window of members. Both parameters are always sent.
// A zero Count is sent as DefaultCount; every other value, including a
// negative one, is sent as given for the server to judge.
type PageQuery struct {
	Start int
	Count int
}

func (q PageQuery) values() url.Values {
	count := q.Count
	if count == 0 {
		count = DefaultCount
	}

	v := url.Values{}
	v.Set("start", strconv.Itoa(q.Start))
	v.Set("count", strconv.Itoa(count))
	return v
}

// MembersQuery selects members of an object in a frame. A nil ObjectPath
// omits the object_path parameter and lists the frame's top-level members;
// a non-nil path is always sent, even when empty.
type MembersQuery struct {
	ObjectPath *string
	PageQuery
}

func (q MembersQuery) values() url.Values {
	v := q.PageQuery.values()
	if q.ObjectPath != nil {
		v.Set("object_path", *q.ObjectPath)
	}
	return v
}

// String returns a pointer to s, for optional query fields.
func String(s string) *string {
	return &s
}
