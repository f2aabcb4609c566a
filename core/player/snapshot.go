package player

import "podcastr/model"

// Snapshot 某一时刻的播放状态，只读，供页面和订阅者渲染
type Snapshot struct {
	Queue        []model.Episode `json:"episodes"`
	CurrentIndex int             `json:"currentEpisodeIndex"`
	Current      *model.Episode  `json:"currentEpisode,omitempty"`
	IsPlaying    bool            `json:"isPlaying"`
	IsLooping    bool            `json:"isLooping"`
	IsShuffling  bool            `json:"isShuffling"`
	HasPrevious  bool            `json:"hasPrevious"`
	HasNext      bool            `json:"hasNext"`
	// Version 由会话层递增，订阅者据此丢弃过期快照
	Version uint64 `json:"version"`
}

// Snapshot 生成当前状态的快照
func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		Queue:        p.Queue(),
		CurrentIndex: p.currentIndex,
		IsPlaying:    p.isPlaying,
		IsLooping:    p.isLooping,
		IsShuffling:  p.isShuffling,
		HasPrevious:  p.HasPrevious(),
		HasNext:      p.HasNext(),
	}
	if ep, ok := p.Current(); ok {
		s.Current = &ep
	}
	return s
}

// CanShuffle 队列里至少有两集时随机才有意义
func (s Snapshot) CanShuffle() bool {
	return s.Current != nil && len(s.Queue) > 1
}
