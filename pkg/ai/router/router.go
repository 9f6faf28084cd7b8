package router

import (
	"strings"
)

// Domain selects which corpus and index a question is answered from
type Domain string

const (
	DomainGeneral Domain = "general"
	DomainReserve Domain = "reserve"
)

// ReserveKeywords route a question to the reservation-system corpus
var ReserveKeywords = []string{"予約", "ログイン", "マニュアル", "アカウント", "登録"}

// GreetingPhrases short-circuit the pipeline with a canned reply
var GreetingPhrases = []string{
	"こんにちは",
	"こんばんは",
	"おはよう",
	"はじめまして",
	"宜しくお願いします",
	"よろしくお願いします",
}

// DomainRouter is a pure keyword router. The zero value is not usable; use NewDomainRouter.
type DomainRouter struct {
	keywords []string
}

func NewDomainRouter(keywords ...string) *DomainRouter {
	if len(keywords) == 0 {
		keywords = ReserveKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &DomainRouter{keywords: lowered}
}

// Route returns DomainReserve when any keyword occurs in the lowercased question.
func (r *DomainRouter) Route(question string) Domain {
	q := strings.ToLower(question)
	for _, k := range r.keywords {
		if strings.Contains(q, k) {
			return DomainReserve
		}
	}
	return DomainGeneral
}

// IsGreeting reports whether the question contains a greeting phrase.
func IsGreeting(question string) bool {
	for _, g := range GreetingPhrases {
		if strings.Contains(question, g) {
			return true
		}
	}
	return false
}

// ParseDomain accepts the string form used in manifests and admin routes.
func ParseDomain(s string) (Domain, bool) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainGeneral:
		return DomainGeneral, true
	case DomainReserve:
		return DomainReserve, true
	}
	return "", false
}
