package feed

import (
	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/engine"
)

// Message renders the feed text and icon for an update.
func Message(cfg config.FeedConfig, u engine.Update) (msg, icon string) {
	switch u.Method {
	case ants.MethodHatched:
		return "Hatched", ""
	case ants.MethodTerminated:
		return "Terminated", ""
	case ants.MethodTriumph:
		return cfg.TriumphMessage, cfg.TriumphIcon
	case ants.MethodHit:
		return cfg.HitMessage, cfg.HitIcon
	case ants.MethodTravel:
		return "Traveling to " + u.Ant.Status, ""
	case ants.MethodThink:
		return "Thinking about " + u.Ant.Status, ""
	case ants.MethodWords:
		return u.Ant.Status, ""
	case ants.MethodMerge:
		if u.Detail != "" {
			return "Merged from " + u.Detail, ""
		}
		return "Merged", ""
	}
	return u.Ant.Status, ""
}
