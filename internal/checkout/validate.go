package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oyhutmarket/storefront/internal/guestorder"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// NewValidator returns a validator that knows the storefront's field
// formats and reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "storefront_email", emailPattern)
	mustRegister(v, "storefront_phone", phonePattern)
	mustRegister(v, "storefront_zip", zipPattern)

	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// ValidationError lists the fields that failed, keyed by JSON path such as
// "customerInfo.email".
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

var fieldLabels = map[string]string{
	"firstName":  "First name",
	"lastName":   "Last name",
	"email":      "Email",
	"phone":      "Phone number",
	"orderType":  "Order type",
	"pickupDate": "Pickup date",
	"pickupTime": "Pickup time",
	"street":     "Street address",
	"city":       "City",
	"zipCode":    "ZIP code",
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "storefront_email":
		return "Invalid email format"
	case "storefront_phone":
		return "Invalid phone format"
	case "storefront_zip":
		return "Invalid ZIP code format"
	default:
		return "Invalid " + strings.ToLower(label)
	}
}

// collect adds the failures in err to fields under prefix.
func collect(fields map[string]string, prefix string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		// Namespace starts with the root struct's name.
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		fields[path] = fieldMessage(fe)
	}
	return nil
}

// CustomerForm is the customer-information step's input.
type CustomerForm struct {
	CustomerInfo        guestorder.CustomerInfo `json:"customerInfo"`
	OrderType           guestorder.OrderType    `json:"orderType" validate:"required,oneof=pickup delivery"`
	PickupDate          string                  `json:"pickupDate" validate:"required,datetime=2006-01-02"`
	PickupTime          string                  `json:"pickupTime" validate:"required,datetime=15:04"`
	DeliveryAddress     *guestorder.Address     `json:"deliveryAddress,omitempty" validate:"-"`
	SpecialInstructions string                  `json:"specialInstructions,omitempty"`
	Occasion            string                  `json:"occasion,omitempty"`
}

// Validate checks the form; a delivery order also needs a valid address.
func (f *CustomerForm) Validate(v *validator.Validate) error {
	fields := make(map[string]string)

	if err := v.Struct(f); err != nil {
		if err := collect(fields, "", err); err != nil {
			return err
		}
	}

	if f.OrderType == guestorder.OrderTypeDelivery {
		addr := guestorder.Address{}
		if f.DeliveryAddress != nil {
			addr = *f.DeliveryAddress
		}
		if err := v.Struct(addr); err != nil {
			if err := collect(fields, "deliveryAddress", err); err != nil {
				return err
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
