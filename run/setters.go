package run

func SetStatus(status Status) UpdateSetter {
	return func(r *Run) error {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		r.Status = status
		return nil
	}
}

func SetResponse(response JSONMap) UpdateSetter {
	return func(r *Run) error {
		r.Response = response
		return nil
	}
}

func SetError(msg string) UpdateSetter {
	return func(r *Run) error {
		r.Error = msg
		return nil
	}
}
