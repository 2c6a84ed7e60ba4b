package validators

import "go.mongodb.org/mongo-driver/bson"

var bookingStatuses = []string{
	"pending",
	"confirmed",
	"active",
	"completed",
	"cancelled",
}

var pricingSchema = bson.M{
	"bsonType": "object",
	"required": []string{"daily_rate", "days", "subtotal", "customer_total"},
	"properties": bson.M{
		"daily_rate":        decimalSchema,
		"days":              bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
		"subtotal":          decimalSchema,
		"upcharge_amount":   decimalSchema,
		"surcharge":         decimalSchema,
		"customer_total":    decimalSchema,
		"commission_amount": decimalSchema,
		"reseller_earnings": decimalSchema,
	},
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"vehicle_id",
			"start_date",
			"end_date",
			"status",
			"channel",
			"customer",
			"payment_method",
			"pricing",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"vehicle_id": objectIDHexSchema,

			"start_date": bson.M{
				"bsonType": "date",
			},

			"end_date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     bookingStatuses,
			},

			"channel": bson.M{
				"bsonType": "string",
				"enum":     []string{"public", "reseller"},
			},

			"reseller_id": objectIDHexSchema,

			"customer": bson.M{
				"bsonType": "object",
				"required": []string{"name", "phone"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"phone": bson.M{
						"bsonType": "string",
						"pattern":  e164Pattern,
					},
					"email": bson.M{
						"bsonType": "string",
					},
				},
			},

			"payment_method": bson.M{
				"bsonType": "string",
				"enum":     []string{"cash", "credit"},
			},

			"pricing": pricingSchema,

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "vehicle_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"vehicle_id": objectIDHexSchema,
			"owner":      bson.M{"bsonType": "string", "minLength": 1},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
