package issuance

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/models"
)

// UpdateVehicle replaces a vehicle's intake fields. Once a payment exists
// the vehicle type is fixed, since the payment holds a quote of its variant.
func (s *Service) UpdateVehicle(ctx context.Context, vehicleID string, req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.VehicleType != req.VehicleType {
		if paid, err := s.hasPayment(ctx, vehicle); err != nil {
			return nil, err
		} else if paid {
			return nil, ErrPricingLocked
		}
	}

	req.Apply(vehicle)
	if err := s.vehicles.UpdateVehicle(ctx, vehicleID, *vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// DeleteVehicle removes a vehicle nobody has paid for.
func (s *Service) DeleteVehicle(ctx context.Context, vehicleID string) error {
	vehicle, err := s.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if paid, err := s.hasPayment(ctx, vehicle); err != nil {
		return err
	} else if paid {
		return ErrPricingLocked
	}

	if err := s.vehicles.DeleteVehicle(ctx, vehicleID); err != nil {
		return err
	}
	log.WithField("vehicle_id", vehicleID).Info("Vehicle deleted")
	return nil
}
