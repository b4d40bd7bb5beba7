package domain

import (
	"strings"
)

// Domain is the content category a work belongs to.
type Domain string

const (
	DomainMovie    Domain = "MOVIE"
	DomainTV       Domain = "TV"
	DomainGame     Domain = "GAME"
	DomainWebtoon  Domain = "WEBTOON"
	DomainWebnovel Domain = "WEBNOVEL"
	DomainOTT      Domain = "OTT"
)

var Domains = []Domain{
	DomainMovie,
	DomainTV,
	DomainGame,
	DomainWebtoon,
	DomainWebnovel,
	DomainOTT,
}

var domainAliases = map[string]Domain{
	"movie":    DomainMovie,
	"tv":       DomainTV,
	"game":     DomainGame,
	"webtoon":  DomainWebtoon,
	"webnovel": DomainWebnovel,
	"novel":    DomainWebnovel,
	"ott":      DomainOTT,
}

// ParseDomain accepts both the canonical upper-case names and the legacy
// lower-case content type names.
func ParseDomain(s string) (Domain, error) {
	d, ok := domainAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", ValidationError{Field: "domain", Reason: "unsupported domain " + s}
	}
	return d, nil
}

func (d Domain) Valid() bool {
	_, ok := domainSlots[d]
	return ok
}

// HasAuthorKey reports whether works of this domain can be matched by
// author or developer.
func (d Domain) HasAuthorKey() bool {
	switch d {
	case DomainGame, DomainWebtoon, DomainWebnovel:
		return true
	}
	return false
}

func (d Domain) String() string {
	return string(d)
}

// Event types published after a commit.
const (
	EventWorkCreated    = "work.created"
	EventWorkMerged     = "work.merged"
	EventWorkIntegrated = "work.integrated"
)
