package usecase

import (
	"sort"
	"time"

	"github.com/alldopamine/catalog/internal/domain"
)

func recAttrs[T domain.Attributes](rec domain.PlatformRecord) (T, bool) {
	a, ok := rec.Attributes.(T)
	return a, ok
}

// DefaultFieldRegistry knows every field of every domain.
func DefaultFieldRegistry() *FieldRegistry {
	r := NewFieldRegistry()
	for _, d := range domain.Domains {
		registerCommon(r, d)
	}
	registerGame(r)
	registerWebtoon(r)
	registerWebnovel(r)
	registerMovie(r)
	registerTV(r)
	registerOTT(r)
	return r
}

func registerCommon(r *FieldRegistry, d domain.Domain) {
	r.RegisterExtractor(d, "title", stringExtractor(func(rec domain.PlatformRecord) string { return rec.Title }))
	r.RegisterExtractor(d, "originalTitle", stringPtrExtractor(func(rec domain.PlatformRecord) *string { return rec.OriginalTitle }))
	r.RegisterExtractor(d, "releaseDate", timeExtractor(func(rec domain.PlatformRecord) *time.Time { return rec.ReleaseDate }))
	r.RegisterExtractor(d, "posterUrl", stringPtrExtractor(func(rec domain.PlatformRecord) *string { return rec.PosterURL }))
	r.RegisterExtractor(d, "synopsis", stringPtrExtractor(func(rec domain.PlatformRecord) *string { return rec.Synopsis }))
	r.RegisterExtractor(d, "rating", func(rec domain.PlatformRecord) (domain.Value, bool) {
		if rec.Rating == nil {
			return domain.Value{}, false
		}
		return domain.FloatValue(*rec.Rating), true
	})
	r.RegisterExtractor(d, "reviewCount", func(rec domain.PlatformRecord) (domain.Value, bool) {
		if rec.ReviewCount == nil {
			return domain.Value{}, false
		}
		return domain.IntValue(*rec.ReviewCount), true
	})
	r.RegisterExtractor(d, "tags", tagExtractor(""))
	r.RegisterExtractor(d, "genres", tagExtractor("genre"))

	r.RegisterSetter(d, "title", stringSetter("title", func(w *domain.Work, s string) { w.Title = s }))
	r.RegisterSetter(d, "originalTitle", stringSetter("originalTitle", func(w *domain.Work, s string) { w.OriginalTitle = &s }))
	r.RegisterSetter(d, "releaseDate", timeSetter("releaseDate", func(w *domain.Work, t time.Time) { w.ReleaseDate = &t }))
	r.RegisterSetter(d, "posterUrl", stringSetter("posterUrl", func(w *domain.Work, s string) { w.PosterURL = &s }))
	r.RegisterSetter(d, "synopsis", stringSetter("synopsis", func(w *domain.Work, s string) { w.Synopsis = &s }))
	r.RegisterSetter(d, "rating", floatSetter("rating", func(w *domain.Work, f float64) { w.Rating = &f }))
	r.RegisterSetter(d, "reviewCount", intSetter("reviewCount", func(w *domain.Work, n int64) { w.ReviewCount = &n }))
}

func registerGame(r *FieldRegistry) {
	d := domain.DomainGame
	attrs := func(rec domain.PlatformRecord) *domain.GameAttributes {
		a, _ := recAttrs[*domain.GameAttributes](rec)
		if a == nil {
			return &domain.GameAttributes{}
		}
		return a
	}
	r.RegisterExtractor(d, "developer", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Developer }))
	r.RegisterExtractor(d, "publisher", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Publisher }))
	r.RegisterExtractor(d, "platforms", listExtractor(func(rec domain.PlatformRecord) []string {
		var out []string
		for name, ok := range attrs(rec).Platforms {
			if ok {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		return out
	}))
	r.RegisterExtractor(d, "genres", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Genres }),
		tagExtractor("genre"),
	))
	r.RegisterExtractor(d, "releaseDate", firstOf(
		timeExtractor(func(rec domain.PlatformRecord) *time.Time { return attrs(rec).ReleaseDate }),
		timeExtractor(func(rec domain.PlatformRecord) *time.Time { return rec.ReleaseDate }),
	))

	game := attrsOf[*domain.GameAttributes]
	r.RegisterSetter(d, "developer", stringSetter("developer", func(w *domain.Work, s string) { game(w).Developer = s }))
	r.RegisterSetter(d, "publisher", stringSetter("publisher", func(w *domain.Work, s string) { game(w).Publisher = s }))
	r.RegisterSetter(d, "platforms", listSetter("platforms", func(w *domain.Work, l []string) {
		a := game(w)
		if a.Platforms == nil {
			a.Platforms = map[string]bool{}
		}
		for _, name := range l {
			a.Platforms[name] = true
		}
	}))
	r.RegisterSetter(d, "genres", listSetter("genres", func(w *domain.Work, l []string) { game(w).Genres = l }))
	r.RegisterSetter(d, "releaseDate", timeSetter("releaseDate", func(w *domain.Work, t time.Time) {
		w.ReleaseDate = &t
		game(w).ReleaseDate = &t
	}))
}

func registerWebtoon(r *FieldRegistry) {
	d := domain.DomainWebtoon
	attrs := func(rec domain.PlatformRecord) *domain.WebtoonAttributes {
		a, _ := recAttrs[*domain.WebtoonAttributes](rec)
		if a == nil {
			return &domain.WebtoonAttributes{}
		}
		return a
	}
	r.RegisterExtractor(d, "author", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Author }))
	r.RegisterExtractor(d, "illustrator", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Illustrator }))
	r.RegisterExtractor(d, "status", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Status }))
	r.RegisterExtractor(d, "startedAt", timeExtractor(func(rec domain.PlatformRecord) *time.Time { return attrs(rec).StartedAt }))
	r.RegisterExtractor(d, "weekdays", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Weekdays }),
		tagExtractor("weekday"),
	))
	r.RegisterExtractor(d, "genres", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Genres }),
		tagExtractor("genre"),
	))

	webtoon := attrsOf[*domain.WebtoonAttributes]
	r.RegisterSetter(d, "author", stringSetter("author", func(w *domain.Work, s string) { webtoon(w).Author = s }))
	r.RegisterSetter(d, "illustrator", stringSetter("illustrator", func(w *domain.Work, s string) { webtoon(w).Illustrator = s }))
	r.RegisterSetter(d, "status", stringSetter("status", func(w *domain.Work, s string) { webtoon(w).Status = s }))
	r.RegisterSetter(d, "startedAt", timeSetter("startedAt", func(w *domain.Work, t time.Time) { webtoon(w).StartedAt = &t }))
	r.RegisterSetter(d, "weekdays", listSetter("weekdays", func(w *domain.Work, l []string) { webtoon(w).Weekdays = l }))
	r.RegisterSetter(d, "genres", listSetter("genres", func(w *domain.Work, l []string) { webtoon(w).Genres = l }))
}

func registerWebnovel(r *FieldRegistry) {
	d := domain.DomainWebnovel
	attrs := func(rec domain.PlatformRecord) *domain.WebnovelAttributes {
		a, _ := recAttrs[*domain.WebnovelAttributes](rec)
		if a == nil {
			return &domain.WebnovelAttributes{}
		}
		return a
	}
	r.RegisterExtractor(d, "author", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Author }))
	r.RegisterExtractor(d, "translator", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Translator }))
	r.RegisterExtractor(d, "publisher", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Publisher }))
	r.RegisterExtractor(d, "ageRating", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).AgeRating }))
	r.RegisterExtractor(d, "startedAt", timeExtractor(func(rec domain.PlatformRecord) *time.Time { return attrs(rec).StartedAt }))
	r.RegisterExtractor(d, "genres", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Genres }),
		tagExtractor("genre"),
	))
	// kakaopage reports the age rating as a tag only
	r.RegisterPlatformExtractor(d, domain.SlotKakaoPage, "ageRating", firstOf(
		stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).AgeRating }),
		func(rec domain.PlatformRecord) (domain.Value, bool) {
			if names := rec.TagNames("age"); len(names) > 0 {
				return domain.StringValue(names[0]), true
			}
			return domain.Value{}, false
		},
	))

	novel := attrsOf[*domain.WebnovelAttributes]
	r.RegisterSetter(d, "author", stringSetter("author", func(w *domain.Work, s string) { novel(w).Author = s }))
	r.RegisterSetter(d, "translator", stringSetter("translator", func(w *domain.Work, s string) { novel(w).Translator = s }))
	r.RegisterSetter(d, "publisher", stringSetter("publisher", func(w *domain.Work, s string) { novel(w).Publisher = s }))
	r.RegisterSetter(d, "ageRating", stringSetter("ageRating", func(w *domain.Work, s string) { novel(w).AgeRating = s }))
	r.RegisterSetter(d, "startedAt", timeSetter("startedAt", func(w *domain.Work, t time.Time) { novel(w).StartedAt = &t }))
	r.RegisterSetter(d, "genres", listSetter("genres", func(w *domain.Work, l []string) { novel(w).Genres = l }))
}

func registerMovie(r *FieldRegistry) {
	d := domain.DomainMovie
	attrs := func(rec domain.PlatformRecord) *domain.MovieAttributes {
		a, _ := recAttrs[*domain.MovieAttributes](rec)
		if a == nil {
			return &domain.MovieAttributes{}
		}
		return a
	}
	r.RegisterExtractor(d, "runtime", intExtractor(func(rec domain.PlatformRecord) int { return attrs(rec).Runtime }))
	r.RegisterExtractor(d, "directors", listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Directors }))
	r.RegisterExtractor(d, "cast", listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Cast }))
	r.RegisterExtractor(d, "genres", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Genres }),
		tagExtractor("genre"),
	))

	movie := attrsOf[*domain.MovieAttributes]
	r.RegisterSetter(d, "runtime", intSetter("runtime", func(w *domain.Work, n int64) { movie(w).Runtime = int(n) }))
	r.RegisterSetter(d, "directors", listSetter("directors", func(w *domain.Work, l []string) { movie(w).Directors = l }))
	r.RegisterSetter(d, "cast", listSetter("cast", func(w *domain.Work, l []string) { movie(w).Cast = l }))
	r.RegisterSetter(d, "genres", listSetter("genres", func(w *domain.Work, l []string) { movie(w).Genres = l }))
}

func registerTV(r *FieldRegistry) {
	d := domain.DomainTV
	attrs := func(rec domain.PlatformRecord) *domain.TVAttributes {
		a, _ := recAttrs[*domain.TVAttributes](rec)
		if a == nil {
			return &domain.TVAttributes{}
		}
		return a
	}
	r.RegisterExtractor(d, "firstAirDate", timeExtractor(func(rec domain.PlatformRecord) *time.Time { return attrs(rec).FirstAirDate }))
	r.RegisterExtractor(d, "seasonCount", intExtractor(func(rec domain.PlatformRecord) int { return attrs(rec).SeasonCount }))
	r.RegisterExtractor(d, "episodeRuntime", intExtractor(func(rec domain.PlatformRecord) int { return attrs(rec).EpisodeRuntime }))
	r.RegisterExtractor(d, "cast", listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Cast }))
	r.RegisterExtractor(d, "genres", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Genres }),
		tagExtractor("genre"),
	))

	tv := attrsOf[*domain.TVAttributes]
	r.RegisterSetter(d, "firstAirDate", timeSetter("firstAirDate", func(w *domain.Work, t time.Time) { tv(w).FirstAirDate = &t }))
	r.RegisterSetter(d, "seasonCount", intSetter("seasonCount", func(w *domain.Work, n int64) { tv(w).SeasonCount = int(n) }))
	r.RegisterSetter(d, "episodeRuntime", intSetter("episodeRuntime", func(w *domain.Work, n int64) { tv(w).EpisodeRuntime = int(n) }))
	r.RegisterSetter(d, "cast", listSetter("cast", func(w *domain.Work, l []string) { tv(w).Cast = l }))
	r.RegisterSetter(d, "genres", listSetter("genres", func(w *domain.Work, l []string) { tv(w).Genres = l }))
}

func registerOTT(r *FieldRegistry) {
	d := domain.DomainOTT
	attrs := func(rec domain.PlatformRecord) *domain.OTTAttributes {
		a, _ := recAttrs[*domain.OTTAttributes](rec)
		if a == nil {
			return &domain.OTTAttributes{}
		}
		return a
	}
	r.RegisterExtractor(d, "creator", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).Creator }))
	r.RegisterExtractor(d, "maturityRating", stringExtractor(func(rec domain.PlatformRecord) string { return attrs(rec).MaturityRating }))
	r.RegisterExtractor(d, "releaseYear", intExtractor(func(rec domain.PlatformRecord) int { return attrs(rec).ReleaseYear }))
	r.RegisterExtractor(d, "features", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Features }),
		tagExtractor("feature"),
	))
	r.RegisterExtractor(d, "cast", listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Cast }))
	r.RegisterExtractor(d, "genres", firstOf(
		listExtractor(func(rec domain.PlatformRecord) []string { return attrs(rec).Genres }),
		tagExtractor("genre"),
	))

	ott := attrsOf[*domain.OTTAttributes]
	r.RegisterSetter(d, "creator", stringSetter("creator", func(w *domain.Work, s string) { ott(w).Creator = s }))
	r.RegisterSetter(d, "maturityRating", stringSetter("maturityRating", func(w *domain.Work, s string) { ott(w).MaturityRating = s }))
	r.RegisterSetter(d, "releaseYear", intSetter("releaseYear", func(w *domain.Work, n int64) { ott(w).ReleaseYear = int(n) }))
	r.RegisterSetter(d, "features", listSetter("features", func(w *domain.Work, l []string) { ott(w).Features = l }))
	r.RegisterSetter(d, "cast", listSetter("cast", func(w *domain.Work, l []string) { ott(w).Cast = l }))
	r.RegisterSetter(d, "genres", listSetter("genres", func(w *domain.Work, l []string) { ott(w).Genres = l }))
}
