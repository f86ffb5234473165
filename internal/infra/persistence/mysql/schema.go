package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates every table the service needs. Statements are
// idempotent so startup can run this unconditionally.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        phone VARCHAR(16) NOT NULL UNIQUE,
        full_name VARCHAR(255) NOT NULL DEFAULT '',
        password_hash VARCHAR(255) NOT NULL DEFAULT '',
        telegram_chat_id VARCHAR(32) NOT NULL DEFAULT '',
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        is_staff BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS addresses (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        user_id BIGINT NOT NULL,
        title VARCHAR(100) NOT NULL DEFAULT '',
        receiver_name VARCHAR(255) NOT NULL DEFAULT '',
        receiver_phone VARCHAR(16) NOT NULL DEFAULT '',
        city VARCHAR(100) NOT NULL DEFAULT '',
        district VARCHAR(100) NOT NULL DEFAULT '',
        street VARCHAR(255) NOT NULL DEFAULT '',
        full_text TEXT,
        notes TEXT,
        latitude DOUBLE NULL,
        longitude DOUBLE NULL,
        is_default BOOLEAN NOT NULL DEFAULT FALSE,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        KEY idx_addresses_user (user_id),
        CONSTRAINT fk_addresses_user FOREIGN KEY (user_id) REFERENCES users (id)
    )`,

	`CREATE TABLE IF NOT EXISTS vendors (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        slug VARCHAR(255) NOT NULL UNIQUE,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        is_visible BOOLEAN NOT NULL DEFAULT TRUE,
        is_accepting_orders BOOLEAN NOT NULL DEFAULT TRUE,
        city VARCHAR(100) NOT NULL DEFAULT '',
        area VARCHAR(100) NOT NULL DEFAULT '',
        lat DOUBLE NULL,
        lng DOUBLE NULL,
        primary_phone VARCHAR(16) NOT NULL DEFAULT '',
        telegram_chat_id VARCHAR(32) NOT NULL DEFAULT '',
        prep_time_minutes INT NOT NULL DEFAULT 0,
        min_order_amount BIGINT NOT NULL DEFAULT 0,
        max_active_orders INT NOT NULL DEFAULT 0,
        supports_in_zone_delivery BOOLEAN NOT NULL DEFAULT TRUE,
        supports_out_of_zone_passthrough BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS vendor_locations (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        vendor_id BIGINT NOT NULL,
        title VARCHAR(100) NOT NULL DEFAULT '',
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        address_text TEXT,
        lat DOUBLE NULL,
        lng DOUBLE NULL,
        service_radius_m INT NOT NULL DEFAULT 0,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        KEY idx_vendor_locations_vendor (vendor_id),
        CONSTRAINT fk_vendor_locations_vendor FOREIGN KEY (vendor_id) REFERENCES vendors (id)
    )`,

	`CREATE TABLE IF NOT EXISTS vendor_staff (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        vendor_id BIGINT NOT NULL,
        user_id BIGINT NOT NULL,
        role VARCHAR(16) NOT NULL,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        UNIQUE KEY uq_vendor_staff (vendor_id, user_id),
        CONSTRAINT fk_vendor_staff_vendor FOREIGN KEY (vendor_id) REFERENCES vendors (id),
        CONSTRAINT fk_vendor_staff_user FOREIGN KEY (user_id) REFERENCES users (id)
    )`,

	`CREATE TABLE IF NOT EXISTS products (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        vendor_id BIGINT NOT NULL,
        category_id BIGINT NULL,
        name VARCHAR(255) NOT NULL,
        short_description TEXT,
        base_price BIGINT NOT NULL DEFAULT 0,
        sort_order INT NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        is_available BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        KEY idx_products_vendor (vendor_id),
        CONSTRAINT fk_products_vendor FOREIGN KEY (vendor_id) REFERENCES vendors (id)
    )`,

	`CREATE TABLE IF NOT EXISTS option_groups (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        vendor_id BIGINT NOT NULL,
        name VARCHAR(255) NOT NULL,
        description TEXT,
        is_required BOOLEAN NOT NULL DEFAULT FALSE,
        min_select INT NOT NULL DEFAULT 0,
        max_select INT NOT NULL DEFAULT 0,
        sort_order INT NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        CONSTRAINT fk_option_groups_vendor FOREIGN KEY (vendor_id) REFERENCES vendors (id)
    )`,

	`CREATE TABLE IF NOT EXISTS option_items (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        option_group_id BIGINT NOT NULL,
        name VARCHAR(255) NOT NULL,
        description TEXT,
        price_delta BIGINT NOT NULL DEFAULT 0,
        sort_order INT NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        KEY idx_option_items_group (option_group_id),
        CONSTRAINT fk_option_items_group FOREIGN KEY (option_group_id) REFERENCES option_groups (id)
    )`,

	`CREATE TABLE IF NOT EXISTS product_option_groups (
        product_id BIGINT NOT NULL,
        option_group_id BIGINT NOT NULL,
        is_required BOOLEAN NULL,
        min_select INT NULL,
        max_select INT NULL,
        sort_order INT NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        PRIMARY KEY (product_id, option_group_id),
        CONSTRAINT fk_pog_product FOREIGN KEY (product_id) REFERENCES products (id),
        CONSTRAINT fk_pog_group FOREIGN KEY (option_group_id) REFERENCES option_groups (id)
    )`,

	`CREATE TABLE IF NOT EXISTS orders (
        id CHAR(36) PRIMARY KEY,
        short_code CHAR(10) NOT NULL,
        user_id BIGINT NOT NULL,
        vendor_id BIGINT NOT NULL,
        delivery_address_id BIGINT NOT NULL,
        source VARCHAR(16) NOT NULL DEFAULT 'WEB',
        status VARCHAR(32) NOT NULL,
        customer_note TEXT,
        subtotal BIGINT NOT NULL DEFAULT 0,
        discount BIGINT NOT NULL DEFAULT 0,
        delivery_fee BIGINT NOT NULL DEFAULT 0,
        service_fee BIGINT NOT NULL DEFAULT 0,
        total BIGINT NOT NULL DEFAULT 0,
        currency CHAR(3) NOT NULL DEFAULT 'IRR',
        payment_status VARCHAR(16) NOT NULL DEFAULT 'UNPAID',
        payment_method VARCHAR(16) NOT NULL DEFAULT 'ONLINE',
        placed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        confirmed_at TIMESTAMP NULL,
        delivered_at TIMESTAMP NULL,
        cancelled_at TIMESTAMP NULL,
        meta JSON,
        KEY idx_orders_short_code (short_code),
        KEY idx_orders_user (user_id),
        KEY idx_orders_vendor_status (vendor_id, status),
        KEY idx_orders_status_payment (status, payment_status, placed_at),
        CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id),
        CONSTRAINT fk_orders_vendor FOREIGN KEY (vendor_id) REFERENCES vendors (id),
        CONSTRAINT fk_orders_address FOREIGN KEY (delivery_address_id) REFERENCES addresses (id)
    )`,

	`CREATE TABLE IF NOT EXISTS order_items (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        order_id CHAR(36) NOT NULL,
        product_id BIGINT NOT NULL,
        title_snapshot VARCHAR(255) NOT NULL,
        unit_price_snapshot BIGINT NOT NULL,
        quantity BIGINT NOT NULL,
        modifiers JSON,
        line_subtotal BIGINT NOT NULL,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        KEY idx_order_items_order (order_id),
        CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id)
    )`,

	`CREATE TABLE IF NOT EXISTS order_deliveries (
        order_id CHAR(36) PRIMARY KEY,
        type VARCHAR(32) NOT NULL,
        is_cash_on_delivery BOOLEAN NOT NULL DEFAULT FALSE,
        courier_name VARCHAR(255) NOT NULL DEFAULT '',
        courier_phone VARCHAR(16) NOT NULL DEFAULT '',
        tracking_code VARCHAR(100) NOT NULL DEFAULT '',
        tracking_url VARCHAR(512) NOT NULL DEFAULT '',
        external_provider VARCHAR(100) NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        CONSTRAINT fk_order_deliveries_order FOREIGN KEY (order_id) REFERENCES orders (id)
    )`,

	`CREATE TABLE IF NOT EXISTS order_status_history (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        order_id CHAR(36) NOT NULL,
        from_status VARCHAR(32) NOT NULL DEFAULT '',
        to_status VARCHAR(32) NOT NULL,
        actor_type VARCHAR(16) NOT NULL,
        actor_user_id BIGINT NULL,
        reason VARCHAR(255) NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        KEY idx_order_history_order (order_id),
        CONSTRAINT fk_order_history_order FOREIGN KEY (order_id) REFERENCES orders (id)
    )`,

	"CREATE TABLE IF NOT EXISTS app_settings (\n        `key` VARCHAR(100) PRIMARY KEY,\n        `value` VARCHAR(255) NOT NULL\n    )",
}
