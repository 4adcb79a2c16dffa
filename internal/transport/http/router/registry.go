package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// Module 管理端功能模块，挂到已鉴权 + 过状态门卫的分组上
type Module interface{ Mount(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

var (
	mu   sync.RWMutex
	mods []Module
)

func Register(mod Module) {
	mu.Lock()
	defer mu.Unlock()
	mods = append(mods, mod)
}

// MountAll 按优先级挂载：Register 进来的 + 调用方显式给的
// （显式传入避免重复建引擎时反复注册）
func MountAll(g *gin.RouterGroup, extra ...Module) {
	mu.RLock()
	snapshot := append([]Module(nil), mods...)
	mu.RUnlock()
	snapshot = append(snapshot, extra...)

	sort.SliceStable(snapshot, func(i, j int) bool {
		return priorityOf(snapshot[i]) < priorityOf(snapshot[j])
	})
	for _, m := range snapshot {
		m.Mount(g)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
