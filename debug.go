package timeline

// debugMaxChildCount is the per-container child count above which debug
// mode logs a warning once per container.
const debugMaxChildCount = 1000

// debugLog logs per-frame timing and draw-call stats at Debug level.
func (g *SceneGraph) debugLog(stats DrawStats) {
	g.logger.Debug("frame",
		"traverse", stats.TraverseTime,
		"submit", stats.SubmitTime,
		"total", stats.TraverseTime+stats.SubmitTime,
		"commands", stats.Commands,
		"draw_calls", stats.DrawCalls,
		"objects", g.ObjectCount(),
		"tracks", len(g.tracks),
		"clips", len(g.clips),
	)
	g.debugCheckChildCount()
}

// debugCheckChildCount warns when a layer or lane grows past
// debugMaxChildCount. Each container is reported once until it shrinks.
func (g *SceneGraph) debugCheckChildCount() {
	if g.warned == nil {
		g.warned = make(map[*Node]bool)
	}
	check := func(n *Node) {
		over := n.NumChildren() > debugMaxChildCount
		if over && !g.warned[n] {
			g.logger.Warn("container exceeds child threshold",
				"node", n.Name, "children", n.NumChildren(), "threshold", debugMaxChildCount)
		}
		if over {
			g.warned[n] = true
		} else {
			delete(g.warned, n)
		}
	}
	for _, layer := range g.layers {
		check(layer)
	}
	for _, tv := range g.tracks {
		check(tv.lane)
	}
}
