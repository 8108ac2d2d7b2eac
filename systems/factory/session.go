package factory

import (
	"github.com/automoto/doomerang-fuse/archetypes"
	"github.com/automoto/doomerang-fuse/components"
	cfg "github.com/automoto/doomerang-fuse/config"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

func CreateSession(ecs *ecs.ECS) *donburi.Entry {
	session := archetypes.Session.Spawn(ecs)
	components.Session.Set(session, &components.SessionData{
		PullRate: cfg.Fuse.PullRate,
	})
	return session
}
