package domain

import (
	"slices"
	"strings"
)

// Slot names one platform identifier position of a domain.
type Slot string

const (
	SlotNaverSeries Slot = "naverSeries"
	SlotKakaoPage   Slot = "kakaoPage"
	SlotRidibooks   Slot = "ridibooks"

	SlotCGV         Slot = "cgv"
	SlotMegabox     Slot = "megabox"
	SlotLotteCinema Slot = "lotteCinema"

	SlotSteam Slot = "steam"
	SlotEpic  Slot = "epic"
	SlotGOG   Slot = "gog"

	SlotNetflix    Slot = "netflix"
	SlotDisneyPlus Slot = "disneyPlus"
	SlotWatcha     Slot = "watcha"
	SlotWavve      Slot = "wavve"

	SlotNaver Slot = "naver"
	SlotKakao Slot = "kakao"

	SlotTMDB Slot = "tmdb"
)

var domainSlots = map[Domain][]Slot{
	DomainWebnovel: {SlotNaverSeries, SlotKakaoPage, SlotRidibooks},
	DomainMovie:    {SlotCGV, SlotMegabox, SlotLotteCinema},
	DomainGame:     {SlotSteam, SlotEpic, SlotGOG},
	DomainOTT:      {SlotNetflix, SlotDisneyPlus, SlotWatcha, SlotWavve},
	DomainWebtoon:  {SlotNaver, SlotKakao},
	DomainTV:       {SlotTMDB},
}

// platform names as crawlers report them, lower-cased
var platformAliases = map[Domain]map[string]Slot{
	DomainWebnovel: {
		"naver":       SlotNaverSeries,
		"naverseries": SlotNaverSeries,
		"kakao":       SlotKakaoPage,
		"kakaopage":   SlotKakaoPage,
		"ridibooks":   SlotRidibooks,
		"ridi":        SlotRidibooks,
	},
	DomainMovie: {
		"cgv":         SlotCGV,
		"megabox":     SlotMegabox,
		"lottecinema": SlotLotteCinema,
		"lotte":       SlotLotteCinema,
	},
	DomainGame: {
		"steam": SlotSteam,
		"epic":  SlotEpic,
		"gog":   SlotGOG,
	},
	DomainOTT: {
		"netflix":    SlotNetflix,
		"disneyplus": SlotDisneyPlus,
		"disney":     SlotDisneyPlus,
		"watcha":     SlotWatcha,
		"wavve":      SlotWavve,
	},
	DomainWebtoon: {
		"naver":        SlotNaver,
		"naverwebtoon": SlotNaver,
		"kakao":        SlotKakao,
		"kakaowebtoon": SlotKakao,
	},
	DomainTV: {
		"tmdb": SlotTMDB,
	},
}

// SlotsFor lists the slots of d in their canonical order.
func SlotsFor(d Domain) []Slot {
	return slices.Clone(domainSlots[d])
}

// ResolveSlot maps a platform name (case-insensitive, "-", "_" and spaces
// ignored) to the slot it fills in domain d.
func ResolveSlot(d Domain, platform string) (Slot, bool) {
	aliases, ok := platformAliases[d]
	if !ok {
		return "", false
	}
	slot, ok := aliases[platformKey(platform)]
	return slot, ok
}

// MustResolveSlot is ResolveSlot returning a ValidationError.
func MustResolveSlot(d Domain, platform string) (Slot, error) {
	slot, ok := ResolveSlot(d, platform)
	if !ok {
		return "", ValidationError{Field: "platform", Reason: "unknown platform " + platform + " for " + string(d)}
	}
	return slot, nil
}

func platformKey(platform string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(platform)))
}

// PlatformMapping holds the platform identifiers of one work. A slot is
// either absent or holds a positive id.
type PlatformMapping struct {
	WorkID int64          `json:"workId"`
	Domain Domain         `json:"domain"`
	IDs    map[Slot]int64 `json:"ids"`
}

func NewPlatformMapping(workID int64, d Domain) *PlatformMapping {
	return &PlatformMapping{
		WorkID: workID,
		Domain: d,
		IDs:    map[Slot]int64{},
	}
}

// Set stores id in slot. A non-positive id clears the slot. It reports
// whether the mapping changed.
func (m *PlatformMapping) Set(slot Slot, id int64) (bool, error) {
	if !slices.Contains(domainSlots[m.Domain], slot) {
		return false, ValidationError{Field: "slot", Reason: "slot " + string(slot) + " does not belong to " + string(m.Domain)}
	}
	if m.IDs == nil {
		m.IDs = map[Slot]int64{}
	}
	current, ok := m.IDs[slot]
	if id <= 0 {
		if !ok {
			return false, nil
		}
		delete(m.IDs, slot)
		return true, nil
	}
	if ok && current == id {
		return false, nil
	}
	m.IDs[slot] = id
	return true, nil
}

func (m *PlatformMapping) Get(slot Slot) (int64, bool) {
	id, ok := m.IDs[slot]
	return id, ok && id > 0
}

func (m *PlatformMapping) Has(slot Slot) bool {
	_, ok := m.Get(slot)
	return ok
}

// Count is the number of populated slots.
func (m *PlatformMapping) Count() int {
	n := 0
	for _, id := range m.IDs {
		if id > 0 {
			n++
		}
	}
	return n
}

func (m *PlatformMapping) IsExclusiveTo(slot Slot) bool {
	return m.Has(slot) && m.Count() == 1
}

func (m *PlatformMapping) IsMultiPlatform() bool {
	return m.Count() >= 2
}

// Slots lists the populated slots in canonical order.
func (m *PlatformMapping) Slots() []Slot {
	var out []Slot
	for _, slot := range domainSlots[m.Domain] {
		if m.Has(slot) {
			out = append(out, slot)
		}
	}
	return out
}

func (m *PlatformMapping) Clone() *PlatformMapping {
	c := *m
	c.IDs = make(map[Slot]int64, len(m.IDs))
	for k, v := range m.IDs {
		c.IDs[k] = v
	}
	return &c
}
