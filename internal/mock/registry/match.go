package registry

import "hemodilab_backend/internal/definitions/domain"

// Match returns the first definition, in iteration order, whose method and
// effective path equal the request's. Comparison is exact and case-sensitive.
func Match(defs []domain.Definition, method domain.Method, path string) (domain.Definition, bool) {
	for _, def := range defs {
		if def.Method != method {
			continue
		}
		if def.EffectivePath() == path {
			return def, true
		}
	}
	return domain.Definition{}, false
}
