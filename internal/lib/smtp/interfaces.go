// Package smtp предоставляет SMTP-транспорт для писем-напоминаний.
package smtp

import "io"

// Client интерфейс SMTP-клиента, достаточный для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает SMTP-соединения для сервиса отправки напоминаний.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
