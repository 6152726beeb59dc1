package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subtrackt/subtrackt/internal/models"
)

// CreateSubscription вставляет новую запись подписки и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (name, category, price, renewal_date,
			      reminder_enabled, timezone, user_email)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Category, sub.Price, sub.RenewalDate,
		sub.ReminderEnabled, sub.Timezone, sub.UserEmail).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// RemoveSubscription удаляет подписку пользователя по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveSubscription(ctx context.Context, id int, userEmail string) (int, error) {
	const op = "storage.RemoveSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscriptions WHERE id = $1 AND user_email = $2`
	result, err := s.DB.ExecContext(ctx, query, id, userEmail)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ReadSubscription возвращает данные подписки по её ID.
func (s *Storage) ReadSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.ReadSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, category, price, renewal_date, reminder_enabled,
			      timezone, user_email
			  FROM subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Subscription
	err := row.Scan(&result.ID, &result.Name, &result.Category, &result.Price,
		&result.RenewalDate, &result.ReminderEnabled, &result.Timezone, &result.UserEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateSubscription обновляет данные подписки по её ID и возвращает количество изменённых строк.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription, id int) (int, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET name = $1, category = $2, price = $3, renewal_date = $4,
			      reminder_enabled = $5, timezone = $6
			  WHERE id = $7 AND user_email = $8`
	result, err := s.DB.ExecContext(ctx, query,
		sub.Name, sub.Category, sub.Price, sub.RenewalDate,
		sub.ReminderEnabled, sub.Timezone, id, sub.UserEmail)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return int(rowsAffected), nil
}

// ListSubscriptions возвращает подписки пользователя, упорядоченные по названию, с пагинацией.
func (s *Storage) ListSubscriptions(ctx context.Context, userEmail string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, category, price, renewal_date, reminder_enabled,
			      timezone, user_email
			  FROM subscriptions
			  WHERE user_email = $1
			  ORDER BY name ASC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userEmail, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price,
			&item.RenewalDate, &item.ReminderEnabled, &item.Timezone, &item.UserEmail); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountMonthlySpend возвращает сумму цен всех подписок пользователя за один цикл.
func (s *Storage) CountMonthlySpend(ctx context.Context, userEmail string) (decimal.Decimal, error) {
	const op = "storage.CountMonthlySpend"
	select {
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(price), 0)
			  FROM subscriptions
			  WHERE user_email = $1`
	var total decimal.Decimal
	if err := s.DB.QueryRowContext(ctx, query, userEmail).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// ListReminderEligible возвращает все подписки с включенными напоминаниями.
// Выбор "due" делает движок, так как "завтра" зависит от timezone подписки.
func (s *Storage) ListReminderEligible(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ListReminderEligible"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, category, price, renewal_date, reminder_enabled,
			      timezone, user_email
			  FROM subscriptions
			  WHERE reminder_enabled = true
			  ORDER BY user_email, name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err = rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price,
			&item.RenewalDate, &item.ReminderEnabled, &item.Timezone, &item.UserEmail); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListExpiredRenewals возвращает подписки с датой продления раньше before.
/// Границу задает вызывающий: для локальных дат в timezone впереди UTC она
// может опережать календарную дату базы данных.
func (s *Storage) ListExpiredRenewals(ctx context.Context, before time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListExpiredRenewals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, category, price, renewal_date, reminder_enabled,
			      timezone, user_email
			  FROM subscriptions
			  WHERE renewal_date < $1`
	rows, err := s.DB.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err = rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price,
			&item.RenewalDate, &item.ReminderEnabled, &item.Timezone, &item.UserEmail); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateRenewalDate переносит дату продления подписки и возвращает число изменённых строк.
func (s *Storage) UpdateRenewalDate(ctx context.Context, id int, newDate time.Time) (int, error) {
	const op = "storage.UpdateRenewalDate"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET renewal_date = $1
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, newDate, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
