/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "time"

// SpringConfig parameterizes a damped spring. Tension and friction use the
// units of common UI animation libraries (force per pixel, per ms).
type SpringConfig struct {
	Mass      float64
	Tension   float64
	Friction  float64
	Precision float64
}

// DragSpring settles dragged objects onto their committed position.
var DragSpring = SpringConfig{Mass: 0.1, Tension: 150, Friction: 5, Precision: 0.01}

const springTick = time.Millisecond

// Spring animates a Vec3 toward a target. It is not safe for concurrent use.
type Spring struct {
	cfg    SpringConfig
	pos    Vec3
	vel    Vec3 // units per ms
	target Vec3
	carry  time.Duration
}

func NewSpring(cfg SpringConfig, at Vec3) *Spring {
	if cfg.Mass <= 0 {
		cfg.Mass = 1
	}
	if cfg.Precision <= 0 {
		cfg.Precision = 0.01
	}
	return &Spring{cfg: cfg, pos: at, target: at}
}

// Set jumps to p without animation, the way a drag moves its object.
func (s *Spring) Set(p Vec3) {
	s.pos, s.target, s.vel, s.carry = p, p, Vec3{}, 0
}

// Animate starts moving toward p from the current position and velocity.
func (s *Spring) Animate(p Vec3) { s.target = p }

func (s *Spring) Position() Vec3 { return s.pos }
func (s *Spring) Target() Vec3   { return s.target }

// Settled reports whether the spring rests on its target.
func (s *Spring) Settled() bool {
	return s.vel.MaxAbs() < s.cfg.Precision && s.target.Sub(s.pos).MaxAbs() < s.cfg.Precision
}

// Step advances the simulation by dt in fixed 1ms ticks and returns the new
// position. Once settled the position is pinned to the target.
func (s *Spring) Step(dt time.Duration) Vec3 {
	s.carry += dt
	for s.carry >= springTick {
		s.carry -= springTick
		if s.Settled() {
			break
		}
		spring := s.pos.Sub(s.target).Scale(-s.cfg.Tension * 1e-6)
		damping := s.vel.Scale(-s.cfg.Friction * 1e-3)
		acc := spring.Add(damping).Scale(1 / s.cfg.Mass)
		s.vel = s.vel.Add(acc)
		s.pos = s.pos.Add(s.vel)
	}
	if s.Settled() {
		s.pos, s.vel, s.carry = s.target, Vec3{}, 0
	}
	return s.pos
}
