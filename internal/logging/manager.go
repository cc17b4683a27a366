package logging

import (
	"fmt"
	"sort"
	"sync"
)

// LoggerManager раздаёт логгеры компонентам ядра и инструментов.
// Уровень консоли берётся из переопределения компонента, иначе из общего уровня.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	level     LogLevel
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers:   make(map[string]*Logger),
			level:     INFO,
			overrides: make(map[string]LogLevel),
		}
	})
	return globalManager
}

// levelFor уровень консоли компонента; вызывается под lm.mu
func (lm *LoggerManager) levelFor(component string) LogLevel {
	if lvl, ok := lm.overrides[component]; ok {
		return lvl
	}
	return lm.level
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// мог создать другой вызов, пока ждали write lock
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("logger for %s: %w", component, err)
	}
	logger.minConsoleLevel = lm.levelFor(component)
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger как GetLogger, но при ошибке файла отдаёт консольный логгер
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	defaultLogger.Warn("логгер %s недоступен, пишем только в консоль: %v", component, err)
	lm.mu.RLock()
	level := lm.levelFor(component)
	lm.mu.RUnlock()

	fallback := newConsoleLogger(component, defaultLogger.consoleLogger.Writer())
	fallback.minConsoleLevel = level
	return fallback
}

// Components отсортированный список созданных логгеров
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetComponentLevel переопределяет уровень консоли одного компонента,
// в том числе ещё не созданного
func (lm *LoggerManager) SetComponentLevel(component string, level LogLevel) {
	lm.mu.Lock()
	lm.overrides[component] = level
	logger := lm.loggers[component]
	lm.mu.Unlock()

	if logger != nil {
		logger.SetLevel(level)
	}
}

// SetGlobalLevel задаёт общий уровень консоли. Переопределения компонентов сохраняются.
func (lm *LoggerManager) SetGlobalLevel(level LogLevel) {
	lm.mu.Lock()
	lm.level = level
	update := make(map[*Logger]LogLevel, len(lm.loggers))
	for name, l := range lm.loggers {
		update[l] = lm.levelFor(name)
	}
	lm.mu.Unlock()

	for l, lvl := range update {
		l.SetLevel(lvl)
	}
	SetDefaultLevel(level)
}

// Configure применяет общий уровень и переопределения из конфигурации
// (имена уровней как в ParseLevel)
func (lm *LoggerManager) Configure(level string, components map[string]string) error {
	global, err := ParseLevel(level)
	if err != nil {
		return err
	}
	for name, s := range components {
		lvl, err := ParseLevel(s)
		if err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
		lm.SetComponentLevel(name, lvl)
	}
	lm.SetGlobalLevel(global)
	return nil
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for name, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("close logger %s: %w", name, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger { return GetComponentLogger("world") }
func GetBenchLogger() *Logger { return GetComponentLogger("bench") }
func GetMapLoadLogger() *Logger { return GetComponentLogger("mapload") }
