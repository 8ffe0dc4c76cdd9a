package session

import (
	"errors"
	"fmt"
	"time"

	"factoryqa-data/internal/auth"
)

var (
	// ErrPinNotRecognized PIN 不在签核人注册表中
	ErrPinNotRecognized = errors.New("pin not recognized")
	// ErrSignOffRequired 当前步骤未签核，禁止前进/提交
	ErrSignOffRequired = errors.New("sign-off required before continuing")
	// ErrRoleNotPermitted 末步签核人角色不在白名单内
	ErrRoleNotPermitted = errors.New("signatory role not permitted for final sign-off")
)

// SignOff 用 PIN 对指定步骤签核。
// 末步额外要求角色在 FinalSignOffRoles 白名单内，
// 角色不符时清掉该步的待签记录并返回 ErrRoleNotPermitted
func SignOff(state *State, step int, pin string, reg *auth.Registry, now time.Time) error {
	state.Normalize()
	if step < 0 || step >= StepCount {
		return fmt.Errorf("step %d out of range", step)
	}

	sig, ok := reg.Resolve(pin)
	if !ok {
		return ErrPinNotRecognized
	}

	if step == StepCount-1 && !auth.IsAllowed(sig, FinalSignOffRoles) {
		state.SignOffPins[step] = ""
		state.SignOffRecords[step] = nil
		return ErrRoleNotPermitted
	}

	state.SignOffPins[step] = sig.Pin
	state.SignOffRecords[step] = &SignOffRecord{
		Pin:       sig.Pin,
		Signatory: *sig,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	return nil
}

// Advance 前进一步，要求当前步已有签核记录
func Advance(state *State) error {
	state.Normalize()
	if state.SignOffRecords[state.CurrentStep] == nil {
		return ErrSignOffRequired
	}
	if state.CurrentStep < StepCount-1 {
		state.CurrentStep++
	}
	return nil
}

// Retreat 后退一步，永远允许
func Retreat(state *State) {
	state.Normalize()
	if state.CurrentStep > 0 {
		state.CurrentStep--
	}
}

// Submit 终审提交，要求末步已有签核记录
func Submit(state *State) error {
	state.Normalize()
	if state.SignOffRecords[StepCount-1] == nil {
		return ErrSignOffRequired
	}
	return nil
}
