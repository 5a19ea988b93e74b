package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/session"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// SessionValidator 会话校验
type SessionValidator interface {
	Validate(ctx context.Context, p platform.Profile, sess *session.Session) session.Status
}

// SessionCapturer 人工登录
type SessionCapturer interface {
	Interactive() bool
	Capture(ctx context.Context, p platform.Profile, account string) (*session.Session, error)
}

// AccountService 账号会话管理：读取、校验、必要时人工登录
type AccountService struct {
	store     *session.Store
	validator SessionValidator
	capturer  SessionCapturer
	onEvent   types.EventHandler

	mutex   sync.Mutex
	invalid map[string]error // 本次运行内已判定无效的账号
}

func NewAccountService(store *session.Store, validator SessionValidator, capturer SessionCapturer, onEvent types.EventHandler) *AccountService {
	return &AccountService{
		store:     store,
		validator: validator,
		capturer:  capturer,
		onEvent:   onEvent,
		invalid:   make(map[string]error),
	}
}

// EnsureSession 返回可用的会话。
// 已保存且校验通过的直接使用；否则在交互模式下人工登录，非交互模式返回 SessionInvalid。
// 同一账号的 SessionInvalid 在本次运行内复用，不再重复探测。
// 只有会话文件读写失败等致命错误才以 error 返回给调用方中止运行
func (s *AccountService) EnsureSession(ctx context.Context, p platform.Profile, account string) (*session.Session, error) {
	scope := types.Scope(p.Name, account)
	s.mutex.Lock()
	cached, ok := s.invalid[scope]
	s.mutex.Unlock()
	if ok {
		return nil, cached
	}

	status, sess, err := s.check(ctx, p, account)
	if err != nil {
		return nil, err
	}
	if status == session.Valid {
		return sess, nil
	}

	interactive := s.capturer != nil && s.capturer.Interactive()
	s.emit(types.LoginRequiredEvent{Platform: p.Name, Account: account, Interactive: interactive})
	if !interactive {
		return nil, s.remember(scope, types.NewSessionInvalidError(fmt.Errorf("账号 %s 未登录或登录已过期，且未开启交互模式", account)))
	}

	utils.WarnWithPlatform(p.Name, fmt.Sprintf("账号 %s 需要重新登录", account))
	captured, err := s.capturer.Capture(ctx, p, account)
	if err != nil {
		if types.IsFatal(err) {
			return nil, err
		}
		return nil, s.remember(scope, types.NewSessionInvalidError(err))
	}
	return captured, nil
}

// Check 校验已保存的会话，只读，不触发登录
func (s *AccountService) Check(ctx context.Context, p platform.Profile, account string) (session.Status, error) {
	status, _, err := s.check(ctx, p, account)
	return status, err
}

// Login 强制人工登录并覆盖已保存的会话
func (s *AccountService) Login(ctx context.Context, p platform.Profile, account string) (*session.Session, error) {
	if s.capturer == nil || !s.capturer.Interactive() {
		return nil, types.NewConfigurationError("登录需要交互模式")
	}
	sess, err := s.capturer.Capture(ctx, p, account)
	if err != nil {
		return nil, err
	}
	s.mutex.Lock()
	delete(s.invalid, types.Scope(p.Name, account))
	s.mutex.Unlock()
	return sess, nil
}

func (s *AccountService) check(ctx context.Context, p platform.Profile, account string) (session.Status, *session.Session, error) {
	sess, err := s.store.Load(p.Name, account)
	if errors.Is(err, session.ErrNoSession) {
		utils.InfoWithPlatform(p.Name, fmt.Sprintf("账号 %s 尚无会话文件", account))
		s.emit(types.SessionCheckedEvent{Platform: p.Name, Account: account, Valid: false})
		return session.Expired, nil, nil
	}
	if err != nil {
		return session.Expired, nil, err
	}

	status := s.validator.Validate(ctx, p, sess)
	s.emit(types.SessionCheckedEvent{Platform: p.Name, Account: account, Valid: status == session.Valid})
	if status == session.Valid {
		now := time.Now()
		if err := s.store.MarkValidated(p.Name, account, now); err != nil {
			return session.Expired, nil, err
		}
		sess.LastValidated = now
		sess.Stale = false
		utils.InfoWithPlatform(p.Name, fmt.Sprintf("账号 %s 会话有效", account))
		return session.Valid, sess, nil
	}

	utils.WarnWithPlatform(p.Name, fmt.Sprintf("账号 %s 会话已失效", account))
	if err := s.store.Invalidate(p.Name, account); err != nil {
		return session.Expired, nil, err
	}
	return session.Expired, nil, nil
}

func (s *AccountService) remember(scope string, err error) error {
	s.mutex.Lock()
	s.invalid[scope] = err
	s.mutex.Unlock()
	return err
}

func (s *AccountService) emit(e types.Event) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}
