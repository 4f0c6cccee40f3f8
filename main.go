// Project Structure Overview
/*
grocerly-backend/
├── cmd/
│   └── server/
│       └── main.go
├── internal/
│   ├── config/
│   │   ├── config.go
│   │   └── database.go
│   ├── models/
│   │   ├── user.go
│   │   ├── product.go
│   │   ├── order.go
│   │   ├── cart.go
│   │   ├── inventory.go
│   │   ├── admin.go
│   │   └── common.go
│   ├── handlers/
│   │   ├── auth.go
│   │   ├── product.go
│   │   ├── category.go
│   │   ├── cart.go
│   │   ├── order.go
│   │   ├── review.go
│   │   ├── payment.go
│   │   ├── admin.go
│   │   └── common.go
│   ├── services/
│   │   ├── auth_service.go
│   │   ├── product_service.go
│   │   ├── category_service.go
│   │   ├── cart_service.go
│   │   ├── order_service.go
│   │   ├── inventory_service.go
│   │   ├── review_service.go
│   │   ├── report_service.go
│   │   ├── payment_service.go
│   │   ├── notification_service.go
│   │   ├── storage_service.go
│   │   └── errors.go
│   ├── middleware/
│   │   ├── auth.go
│   │   ├── cors.go
│   │   ├── rate_limit.go
│   │   ├── i18n.go
│   │   └── logging.go
│   ├── database/
│   │   └── connection.go
│   ├── i18n/
│   │   ├── i18n.go
│   │   ├── locales/
│   │   │   ├── en.json
│   │   │   └── zh_TW.json
│   │   └── keys.go
│   ├── utils/
│   │   ├── jwt.go
│   │   ├── validator.go
│   │   ├── pagination.go
│   │   └── response.go
│   └── router/
│       └── router.go
├── go.mod
├── go.sum
├── Dockerfile
├── docker-compose.yml
└── README.md
*/

package grocerly

// This file shows the project structure and main entry point
// The actual implementation will be in separate files as shown in the structure above
