package handler

import (
	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// --- Request → domain ---

func toUserRecord(u *userRequest) *domain.UserRecord {
	if u == nil {
		return nil
	}
	return &domain.UserRecord{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Avatar:      u.Avatar,
		AccountType: u.AccountType,
		CreatedAt:   u.CreatedAt,
	}
}

func tierFor(remember bool) domain.Tier {
	if remember {
		return domain.TierDurable
	}
	return domain.TierEphemeral
}

// --- domain → Response ---

func toSessionResponse(role domain.Role, s domain.Session) sessionResponse {
	resp := sessionResponse{
		Role:          role.String(),
		Authenticated: role.Authenticated(),
		Tier:          string(s.Tier),
	}
	if s.User != nil && role.Authenticated() {
		u := s.User
		resp.User = &userResponse{
			ID:          u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			FullName:    u.FullName(),
			Email:       u.Email,
			Phone:       u.Phone,
			Avatar:      u.Avatar,
			AccountType: u.AccountType,
			CreatedAt:   u.CreatedAt,
		}
	}
	return resp
}

func toMenuResponse(nodes []domain.NavigationMenuNode) []menuNodeResponse {
	out := make([]menuNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, menuNodeResponse{
			Key:      n.Key,
			Label:    n.Label,
			Path:     n.Path,
			Children: toMenuResponse(n.Children),
		})
	}
	return out
}

func toFeedResponse(f domain.FeedState) feedResponse {
	resp := feedResponse{
		Items:       make([]notificationResponse, 0, len(f.Items)),
		UnreadCount: f.UnreadCount,
	}
	for _, n := range f.Items {
		resp.Items = append(resp.Items, notificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Severity:  string(n.Severity),
			Read:      n.Read,
			Link:      n.Link,
			CreatedAt: n.CreatedAt,
		})
	}
	if f.LastFetchError != nil {
		resp.Stale = true
		resp.LastError = "notifications temporarily unavailable"
	}
	if !f.FetchedAt.IsZero() {
		t := f.FetchedAt
		resp.FetchedAt = &t
	}
	return resp
}
