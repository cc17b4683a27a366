package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня из конфигурации (регистр не важен)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
	}
}

// Logger представляет логгер компонента: консоль и опционально файл
type Logger struct {
	mu              sync.Mutex
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

var (
	// каталог для файловых логов; пустая строка - только консоль
	fileOutputDir string
	fileOutputMu  sync.RWMutex

	defaultLogger = newConsoleLogger("default", os.Stdout)
)

// EnableFileOutput включает запись логов новых компонентов в файлы каталога dir
func EnableFileOutput(dir string) {
	fileOutputMu.Lock()
	fileOutputDir = dir
	fileOutputMu.Unlock()
}

func newConsoleLogger(component string, w io.Writer) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(w, "", log.LstdFlags),
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}
}

// NewLogger создаёт логгер компонента. Файл создаётся только при включённом EnableFileOutput.
func NewLogger(component string) (*Logger, error) {
	l := newConsoleLogger(component, os.Stdout)

	fileOutputMu.RLock()
	dir := fileOutputDir
	fileOutputMu.RUnlock()

	if dir == "" {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	l.file = file
	l.fileLogger = log.New(file, "", log.LstdFlags)
	return l, nil
}

// NewWriterLogger создаёт логгер, пишущий в произвольный writer (удобно в тестах)
func NewWriterLogger(component string, w io.Writer, level LogLevel) *Logger {
	l := newConsoleLogger(component, w)
	l.minConsoleLevel = level
	return l
}

// InitDefaultLogger заменяет логгер по умолчанию логгером компонента
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

// CloseDefaultLogger закрывает файл логгера по умолчанию
func CloseDefaultLogger() {
	if defaultLogger != nil {
		_ = defaultLogger.Close()
	}
}

// SetDefaultLevel задаёт минимальный уровень консоли для логгера по умолчанию
func SetDefaultLevel(level LogLevel) {
	defaultLogger.SetLevel(level)
}

// SetLevel задаёт минимальный уровень вывода в консоль
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = level
	l.mu.Unlock()
}

// Enabled сообщает, будет ли сообщение уровня level куда-нибудь записано
func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.minConsoleLevel || (l.fileLogger != nil && level >= l.minFileLevel)
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	// В файл пишем все уровни от minFileLevel
	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}

	// В консоль только от minConsoleLevel (по умолчанию INFO и выше)
	if level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) {
	l.logMessage(TRACE, format, args...)
}

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logMessage(DEBUG, format, args...)
}

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) {
	l.logMessage(INFO, format, args...)
}

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logMessage(WARN, format, args...)
}

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) {
	l.logMessage(ERROR, format, args...)
}

// Trace логирует через логгер по умолчанию
func Trace(format string, args ...interface{}) {
	defaultLogger.Trace(format, args...)
}

// Debug логирует через логгер по умолчанию
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// Info логирует через логгер по умолчанию
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Warn логирует через логгер по умолчанию
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Error логирует через логгер по умолчанию
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

// exit подменяется в тестах
var exit = os.Exit

// Fatal логирует ошибку, закрывает все логгеры и завершает процесс.
// Вызывается только из main-пакетов: ядро возвращает ошибки, а не падает.
func Fatal(format string, args ...interface{}) {
	defaultLogger.Error("💀 "+format, args...)
	_ = GetLoggerManager().CloseAll()
	CloseDefaultLogger()
	exit(1)
}
