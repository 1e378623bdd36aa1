package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Page is the backend's pagination wrapper.
type Page[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
	Size    int `json:"size"`
	Current int `json:"current"`
	Pages   int `json:"pages"`
}

// Icon holds a bookmark icon that the backend sends either as a number or a string.
type Icon string

// UnmarshalJSON accepts numeric and string icons.
func (i *Icon) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*i = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*i = Icon(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("icon must be a string or number: %w", err)
	}
	*i = Icon(n.String())
	return nil
}

// TokenInfo describes the session token issued at login.
type TokenInfo struct {
	TokenName       string `json:"tokenName"`
	TokenValue      string `json:"tokenValue"`
	IsLogin         bool   `json:"isLogin"`
	LoginID         any    `json:"loginId"`
	LoginType       string `json:"loginType"`
	TokenTimeout    int64  `json:"tokenTimeout"`
	SessionTimeout  int64  `json:"sessionTimeout"`
	LoginDeviceType string `json:"loginDeviceType"`
}

// UserInfo is the signed-in user's profile.
type UserInfo struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// LoginResponse is returned by password, registration and GitHub logins.
type LoginResponse struct {
	UserInfo  UserInfo  `json:"userInfo"`
	TokenInfo TokenInfo `json:"tokenInfo"`
}

// LoginRequest carries a username or email and a pre-hashed password.
type LoginRequest struct {
	Credential string `json:"credential"`
	Password   string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserKey is an access key for third-party integrations.
type UserKey struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	AccessKey   string `json:"accessKey"`
	KeyName     string `json:"keyName,omitempty"`
	Description string `json:"description,omitempty"`
	CreateTime  string `json:"createTime"`
	UpdateTime  string `json:"updateTime"`
}

type CreateKeyRequest struct {
	KeyName     string `json:"keyName,omitempty"`
	Description string `json:"description,omitempty"`
}

// Bookmark is a saved link as listed by the backend.
type Bookmark struct {
	ID          string `json:"id"`
	SpaceID     string `json:"spaceId"`
	NamespaceID string `json:"namespaceId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Icon        Icon   `json:"icon"`
	Num         int    `json:"num"`
	Star        bool   `json:"star"`
	Tags        []Tag  `json:"tags,omitempty"`
}

// Space returns the owning space ID under either field name.
func (b Bookmark) Space() string {
	if b.SpaceID != "" {
		return b.SpaceID
	}
	return b.NamespaceID
}

// TagNames returns the names of the bookmark's tags.
func (b Bookmark) TagNames() []string {
	names := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		names = append(names, t.Name)
	}
	return names
}

type AddBookmarkRequest struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	NamespaceID string   `json:"namespaceId,omitempty"`
	TagIDs      []string `json:"tagsIds,omitempty"`
}

type EditBookmarkRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	URL         string   `json:"url,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Description string   `json:"description,omitempty"`
	NamespaceID string   `json:"namespaceId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ImportResult summarises a bookmark import.
type ImportResult struct {
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
	TotalCount   int    `json:"totalCount"`
	Message      string `json:"message"`
}

// Space groups bookmarks and can be shared.
type Space struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Sort        int    `json:"sort"`
	Shared      bool   `json:"shared"`
	Key         string `json:"key"`
	Description string `json:"description"`
	CreateTime  string `json:"createTime"`
	UpdateTime  string `json:"updateTime"`
}

type AddSpaceRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Sort        int    `json:"sort,omitempty"`
	Description string `json:"description,omitempty"`
}

type EditSpaceRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Sort        int    `json:"sort,omitempty"`
	Description string `json:"description,omitempty"`
}

// Stats is the count payload returned by the space, tag and bookmark stats endpoints.
type Stats struct {
	SpaceID    string `json:"spaceId,omitempty"`
	TagID      string `json:"tagId,omitempty"`
	TotalCount int    `json:"totalCount"`
}

// Tag labels bookmarks across spaces.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Sort        int    `json:"sort"`
	Description string `json:"description"`
	CreateTime  string `json:"createTime"`
	UpdateTime  string `json:"updateTime"`
}

type AddTagRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

type EditTagRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// ListParams are the shared page/size/search query parameters.
type ListParams struct {
	Page   int
	Size   int
	Search string
}

// Values encodes non-zero fields as query parameters.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

type UpdateShareRequest struct {
	SpaceID string `json:"spaceId"`
	Enable  bool   `json:"enable"`
	Key     string `json:"key,omitempty"`
}

type CollectSpaceRequest struct {
	SpaceID  string `json:"spaceId"`
	Password string `json:"password"`
}

// WebsiteAnalysisRequest asks the backend to analyse url.
type WebsiteAnalysisRequest struct {
	URL string `json:"url"`
}

// WebsiteAnalysis is the AI suggestion for where a URL belongs.
type WebsiteAnalysis struct {
	URL            string   `json:"url"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Icon           string   `json:"icon,omitempty"`
	SpaceID        string   `json:"spaceId,omitempty"`
	SpaceName      string   `json:"spaceName,omitempty"`
	TagIDs         []string `json:"tagIds,omitempty"`
	TagNames       []string `json:"tagNames,omitempty"`
	SuggestedSpace string   `json:"suggestedSpace,omitempty"`
	SuggestedTags  []string `json:"suggestedTags,omitempty"`
}

// BasicInfo is the site summary delivered before the final analysis.
type BasicInfo struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResourceUsage reports the caller's AI analysis quota.
type ResourceUsage struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetTime string `json:"resetTime,omitempty"`
}

type FeedbackRequest struct {
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
	Contact string `json:"contact,omitempty"`
}

type FeedbackResponse struct {
	ID string `json:"id"`
}

// ForgotPasswordRequest asks the backend to mail a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a reset with the mailed code. Passwords are pre-hashed.
type ResetPasswordRequest struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"newUsername"`
}

// IgnoredGroupRequest names one duplicate group to hide.
type IgnoredGroupRequest struct {
	GroupName string `json:"groupName"`
}

type IgnoredGroupsRequest struct {
	GroupNames []string `json:"groupNames"`
}

// SortUpdate pins a space to an explicit sort position.
type SortUpdate struct {
	ID   string `json:"id"`
	Sort int    `json:"sort"`
}

// SpaceDragSort moves one space or replaces the whole order.
type SpaceDragSort struct {
	DraggedSpaceID string   `json:"draggedSpaceId,omitempty"`
	TargetIndex    string   `json:"targetIndex,omitempty"`
	SortedSpaceIDs []string `json:"sortedSpaceIds,omitempty"`
}

type TagDragSort struct {
	DraggedTagID string   `json:"draggedTagId,omitempty"`
	TargetIndex  string   `json:"targetIndex,omitempty"`
	SortedTagIDs []string `json:"sortedTagIds,omitempty"`
}

// ReceivedState is the lifecycle of a bookmark sent to the user's inbox.
type ReceivedState int

const (
	ReceivedPending   ReceivedState = 1
	ReceivedConfirmed ReceivedState = 2
	ReceivedDeleted   ReceivedState = 3
)

func (s ReceivedState) String() string {
	switch s {
	case ReceivedPending:
		return "pending"
	case ReceivedConfirmed:
		return "confirmed"
	case ReceivedDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ParseReceivedState accepts a state name or its numeric code.
func ParseReceivedState(s string) (ReceivedState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "1":
		return ReceivedPending, nil
	case "confirmed", "2":
		return ReceivedConfirmed, nil
	case "deleted", "3":
		return ReceivedDeleted, nil
	}
	return 0, fmt.Errorf("unknown inbox state %q", s)
}

// ReceivedBookmark is a bookmark delivered to the inbox by an integration.
type ReceivedBookmark struct {
	ID          string        `json:"id"`
	NamespaceID string        `json:"namespaceId,omitempty"`
	Group       string        `json:"group,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url"`
	Icon        Icon          `json:"icon,omitempty"`
	Tag         string        `json:"tag,omitempty"`
	State       ReceivedState `json:"state"`
	CreateTime  string        `json:"createTime"`
	UpdateTime  string        `json:"updateTime"`
}

type AddReceivedRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	NamespaceID string `json:"namespaceId,omitempty"`
	Group       string `json:"group,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Tag         string `json:"tag,omitempty"`
}

type EditReceivedRequest struct {
	ID string `json:"id"`
	AddReceivedRequest
}

// ReceivedParams filter the inbox listing. A zero State lists every state.
type ReceivedParams struct {
	ListParams
	State ReceivedState
}

func (p ReceivedParams) Values() url.Values {
	v := p.ListParams.Values()
	if p.State != 0 {
		v.Set("state", strconv.Itoa(int(p.State)))
	}
	return v
}

// ReceivedStats counts inbox entries per state.
type ReceivedStats struct {
	PendingCount   int `json:"pendingCount"`
	ConfirmedCount int `json:"confirmedCount"`
	DeletedCount   int `json:"deletedCount"`
	TotalCount     int `json:"totalCount"`
}

// Collector is a user who collected one of the caller's shared spaces.
type Collector struct {
	UserID      string `json:"userId"`
	Avatar      string `json:"avatar,omitempty"`
	Name        string `json:"name"`
	CollectedAt string `json:"collectedAt"`
}

// CollectorParams page through the collectors of one space.
type CollectorParams struct {
	SpaceID string
	Page    int
	Size    int
}

func (p CollectorParams) Values() url.Values {
	v := ListParams{Page: p.Page, Size: p.Size}.Values()
	v.Set("spaceId", p.SpaceID)
	return v
}

type RemoveCollectorRequest struct {
	SpaceID string `json:"spaceId"`
	UserID  string `json:"userId"`
}
