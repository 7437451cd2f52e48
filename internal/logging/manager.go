package logging

import (
	"fmt"
	"os"
	"sync"
)

// LoggerManager управляет логгерами отдельных компонентов
type LoggerManager struct {
	mu           sync.RWMutex
	loggers      map[string]*Logger
	withFile     bool
	consoleLevel LogLevel
	fileLevel    LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров.
// По умолчанию компоненты пишут только в консоль; EnableFiles включает файлы.
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:      make(map[string]*Logger),
		consoleLevel: INFO,
		fileLevel:    TRACE,
	}
}

// EnableFiles включает запись логов компонентов в файлы для новых логгеров
func (lm *LoggerManager) EnableFiles(enabled bool) {
	lm.mu.Lock()
	lm.withFile = enabled
	lm.mu.Unlock()
}

// SetDefaultLevels задаёт пороги для всех компонентов: уже созданных и будущих
func (lm *LoggerManager) SetDefaultLevels(console, file LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.consoleLevel = console
	lm.fileLevel = file
	for _, logger := range lm.loggers {
		logger.SetLevels(console, file)
	}
}

// GetLogger возвращает логгер для компонента, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger, nil
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// Проверяем еще раз на случай race condition
	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	var logger *Logger
	if lm.withFile {
		var err error
		logger, err = NewLogger(component)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger for %s: %w", component, err)
		}
	} else {
		logger = newConsoleLogger(component, os.Stdout)
	}
	logger.SetLevels(lm.consoleLevel, lm.fileLevel)

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или консольный fallback при ошибке
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		return newConsoleLogger(component, os.Stdout)
	}
	return logger
}

// CloseAll закрывает все логгеры
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close logger for %s: %w", component, err)
		}
	}

	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// ListComponents возвращает список всех зарегистрированных компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	return components
}

// SetLogLevel устанавливает уровень логирования для компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("logger for component %s not found", component)
	}

	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// Удобные функции для получения логгеров
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetStreamingLogger() *Logger {
	return GetComponentLogger("streaming")
}

func GetMeshLogger() *Logger {
	return GetComponentLogger("mesh")
}

func GetPoolLogger() *Logger {
	return GetComponentLogger("pool")
}

func GetAPILogger() *Logger {
	return GetComponentLogger("api")
}

// Setup применяет настройки логирования из конфигурации: файл логгера
// по умолчанию создаётся только при withFile, уровень получают все компоненты.
func Setup(component string, level LogLevel, withFile bool) error {
	if withFile {
		if err := InitDefaultLogger(component); err != nil {
			return err
		}
	}
	Default().SetLevels(level, TRACE)

	lm := GetLoggerManager()
	lm.EnableFiles(withFile)
	lm.SetDefaultLevels(level, TRACE)
	return nil
}
