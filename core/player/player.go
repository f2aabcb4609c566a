// Package player 保存播放队列状态：队列、当前索引以及播放/循环/随机标志。
//
// Player 不是并发安全的，调用方（会话层）负责串行化访问。
package player

import (
	"math/rand"

	"podcastr/model"
)

// Player 播放队列状态容器
type Player struct {
	queue        []model.Episode
	currentIndex int
	isPlaying    bool
	isLooping    bool
	isShuffling  bool

	// intn 返回 [0, n) 内的随机数，测试中可替换
	intn func(n int) int
}

// Option 配置 Player
type Option func(*Player)

// WithRandom 替换随机导航使用的随机源
func WithRandom(intn func(n int) int) Option {
	return func(p *Player) {
		p.intn = intn
	}
}

// New 创建空的播放队列
func New(opts ...Option) *Player {
	p := &Player{
		queue: make([]model.Episode, 0),
		intn:  rand.Intn,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Len 返回队列长度
func (p *Player) Len() int {
	return len(p.queue)
}

// IsEmpty 队列是否为空
func (p *Player) IsEmpty() bool {
	return p.Len() == 0
}

// CurrentIndex 返回当前索引，队列为空时为 0
func (p *Player) CurrentIndex() int {
	return p.currentIndex
}

// IsPlaying 是否正在播放
func (p *Player) IsPlaying() bool {
	return p.isPlaying
}

// IsLooping 是否单集循环
func (p *Player) IsLooping() bool {
	return p.isLooping
}

// IsShuffling 是否随机导航
func (p *Player) IsShuffling() bool {
	return p.isShuffling
}

// HasPrevious 随机模式下总为 true，否则当前不是第一集
func (p *Player) HasPrevious() bool {
	return p.isShuffling || p.currentIndex > 0
}

// HasNext 随机模式下总为 true，否则当前不是最后一集
func (p *Player) HasNext() bool {
	return p.isShuffling || p.currentIndex+1 < len(p.queue)
}

// Current 返回当前剧集，队列为空时 ok 为 false
func (p *Player) Current() (model.Episode, bool) {
	if p.currentIndex < 0 || p.currentIndex >= len(p.queue) {
		return model.Episode{}, false
	}
	return p.queue[p.currentIndex], true
}

// Queue 返回队列的副本
func (p *Player) Queue() []model.Episode {
	result := make([]model.Episode, len(p.queue))
	copy(result, p.queue)
	return result
}

// PlaySingle 将剧集追加到队尾并开始播放。同一剧集可以出现多次。
func (p *Player) PlaySingle(episode model.Episode) {
	p.queue = append(p.queue, episode)
	p.currentIndex = len(p.queue) - 1
	p.isPlaying = true
}

// PlayList 用 list 替换队列并从 index 开始播放。
// index 必须在 [0, len(list)) 内，由调用方保证。
func (p *Player) PlayList(list []model.Episode, index int) {
	p.queue = make([]model.Episode, len(list))
	copy(p.queue, list)
	p.currentIndex = index
	p.isPlaying = true
}

// TogglePlay 切换播放/暂停
func (p *Player) TogglePlay() {
	p.isPlaying = !p.isPlaying
}

// SetPlaying 设置播放状态，音频元素的 play/pause 事件使用
func (p *Player) SetPlaying(state bool) {
	p.isPlaying = state
}

// ToggleLoop 切换循环
func (p *Player) ToggleLoop() {
	p.isLooping = !p.isLooping
}

// ToggleShuffle 切换随机导航，不会打乱队列本身
func (p *Player) ToggleShuffle() {
	p.isShuffling = !p.isShuffling
}

// PlayNext 没有下一集时什么也不做。
// 随机模式下在整个队列中均匀选取索引，可能选中当前这一集。
func (p *Player) PlayNext() {
	if !p.HasNext() || p.IsEmpty() {
		return
	}

	if p.isShuffling {
		p.currentIndex = p.intn(len(p.queue))
		return
	}
	p.currentIndex++
}

// PlayPrevious 与 PlayNext 对称
func (p *Player) PlayPrevious() {
	if !p.HasPrevious() || p.IsEmpty() {
		return
	}

	if p.isShuffling {
		p.currentIndex = p.intn(len(p.queue))
		return
	}
	p.currentIndex--
}

// Clear 清空队列并将索引重置为 0
func (p *Player) Clear() {
	p.queue = make([]model.Episode, 0)
	p.currentIndex = 0
}

// HandleEnded 一集播放结束：有下一集则切到下一集，否则清空队列
func (p *Player) HandleEnded() {
	if p.HasNext() && !p.IsEmpty() {
		p.PlayNext()
		return
	}
	p.Clear()
}
