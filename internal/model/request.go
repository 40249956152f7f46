package model

// CreateRequest is the body for POST /v1/create_post. All fields are optional:
// an empty body yields the caller's unpublished slot, any populated field
// yields a draft carrying the given fields.
type CreateRequest struct {
	ReplyTo     *string  `json:"reply_to"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Rating      *Rating  `json:"rating"`
	Privacy     *Privacy `json:"privacy"`
}

// Empty reports whether no field at all was provided.
func (r CreateRequest) Empty() bool {
	return r.ReplyTo == nil && r.Title == nil && r.Description == nil && r.Rating == nil && r.Privacy == nil
}

// UpdateRequest is the body for POST /v1/update_post. A missing field means
// "unchanged"; title/description present as "" mean "clear to null".
type UpdateRequest struct {
	PostID      string   `json:"post_id"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Rating      *Rating  `json:"rating"`
	Privacy     *Privacy `json:"privacy"`
}

// PrivacyRequest is the body for POST /v1/update_privacy.
type PrivacyRequest struct {
	PostID  string  `json:"post_id"`
	Privacy Privacy `json:"privacy"`
}

// VoteRequest is the body for POST /v1/vote. Vote must be 1, -1, 0 or null;
// 0 and null both retract the caller's vote.
type VoteRequest struct {
	PostID string `json:"post_id"`
	Vote   *int   `json:"vote"`
}

// IconRequest is the body for POST /v1/set_icon and POST /v1/set_banner.
type IconRequest struct {
	PostID      string      `json:"post_id"`
	Coordinates Coordinates `json:"coordinates"`
}

// CreateResponse is the body returned by POST /v1/create_post.
type CreateResponse struct {
	PostID string `json:"post_id"`
}
