package models

import "time"

// EngineState 定义了需要持久化的所有关键数据。
// 平滑状态是核心中唯一跨周期携带的可变状态，进程重启后从这里恢复。
type EngineState struct {
	BotID          string             `json:"bot_id"`           // Bot的唯一标识符
	Version        int                `json:"version"`          // 状态模型的版本号，用于未来迁移
	Weights        map[string]float64 `json:"weights"`          // 指数平滑后的目标权重向量 (symbol -> weight)
	CycleCount     int64              `json:"cycle_count"`      // 已完成的再平衡周期数
	LastUpdateTime time.Time          `json:"last_update_time"` // 状态最后更新的时间戳
}

// NewEngineState 创建一个空的初始状态
func NewEngineState(botID string) *EngineState {
	return &EngineState{
		BotID:   botID,
		Version: 1,
		Weights: make(map[string]float64),
	}
}

// CloneWeights 返回权重向量的深拷贝，避免调用方与持久化协程共享底层map
func (s *EngineState) CloneWeights() map[string]float64 {
	w := make(map[string]float64, len(s.Weights))
	for k, v := range s.Weights {
		w[k] = v
	}
	return w
}
